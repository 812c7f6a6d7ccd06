package photon

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/nina-protocol/nina-go/pkg/metrics"
	"github.com/nina-protocol/nina-go/pkg/pointer"
	"github.com/nina-protocol/nina-go/pkg/rate"
	"github.com/nina-protocol/nina-go/pkg/retry"
	"github.com/nina-protocol/nina-go/pkg/retry/backoff"
	"github.com/nina-protocol/nina-go/pkg/solana/lightsystem"
)

const (
	metricsStructName = "photon.client"

	validityProofLatencyMetricName = "Photon/validity_proof_latency"
	validityProofEntriesMetricName = "Photon/validity_proof_entries"
	incompleteProofEventName       = "PhotonIncompleteProof"
)

var (
	ErrRateLimited     = errors.New("rate limited")
	ErrServiceError    = errors.New("service error")
	ErrAccountNotFound = errors.New("compressed account not found")
)

// QueueResolver maps a tree to the queue paired with it. The indexer reports
// trees only, so queues are resolved locally.
type QueueResolver interface {
	QueueForTree(tree ed25519.PublicKey) (ed25519.PublicKey, error)
}

// Client provides access to a photon compressed account indexer and its
// validity prover.
//
// Reference: https://www.zkcompression.com/developers/json-rpc-methods
type Client interface {
	// GetValidityProof proves the inclusion of hashes and the non-inclusion of
	// newAddresses. Proof entries are ordered hashes first, then addresses.
	GetValidityProof(ctx context.Context, hashes []lightsystem.Hash, newAddresses []AddressWithTree) (*lightsystem.ValidityProof, error)

	// GetValidityProofForQuery requests a proof for the query's items, in query
	// order, and validates that the proof matches the query before returning.
	GetValidityProofForQuery(ctx context.Context, query *lightsystem.ProofQuery) (*lightsystem.ValidityProof, error)

	GetCompressedAccount(ctx context.Context, address lightsystem.FieldElement) (*lightsystem.CompressedAccountWithMerkleContext, error)
	GetCompressedAccountByHash(ctx context.Context, hash lightsystem.Hash) (*lightsystem.CompressedAccountWithMerkleContext, error)

	// GetCompressedAccountsByOwner returns every compressed account owned by
	// owner, following the indexer's pagination cursor.
	GetCompressedAccountsByOwner(ctx context.Context, owner ed25519.PublicKey) ([]*lightsystem.CompressedAccountWithMerkleContext, error)
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter
	queues  QueueResolver

	pageLimit uint64
}

type noQueues struct{}

func (noQueues) QueueForTree(tree ed25519.PublicKey) (ed25519.PublicKey, error) {
	return nil, errors.Wrapf(lightsystem.ErrUnknownTree, "tree %s", base58.Encode(tree))
}

// New returns a client configured with the provided options. A nil queues
// resolver only works against indexers that report queues themselves.
func New(opts *Options, queues QueueResolver) Client {
	opts = opts.withDefaults()
	if queues == nil {
		queues = noQueues{}
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(opts.RequestsPerSecond))
	}

	return &client{
		log:    logrus.StandardLogger().WithField("type", "photon/client"),
		client: jsonrpc.NewClientWithOpts(opts.Endpoint, opts.RPC),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(ErrRateLimited, ErrServiceError),
			retry.Limit(opts.MaxAttempts),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter:   limiter,
		queues:    queues,
		pageLimit: opts.PageLimit,
	}
}

func (c *client) call(ctx context.Context, out interface{}, method string, params interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.retrier.RetryWithContext(ctx, func() error {
		if err := c.limiter.Wait(ctx, method); err != nil {
			return err
		}

		err := c.client.CallFor(out, method, params)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})
	return err
}

func (c *client) handleRpcError(method string, err error) error {
	var code int
	switch typed := err.(type) {
	case *jsonrpc.RPCError:
		code = typed.Code
	case *jsonrpc.HTTPError:
		code = typed.Code
	default:
		return err
	}

	if code == 429 {
		c.log.WithField("method", method).Warn("rate limited")
		return errors.Wrap(ErrRateLimited, err.Error())
	}
	if code >= 500 {
		return errors.Wrap(ErrServiceError, err.Error())
	}

	return err
}

func (c *client) GetValidityProof(ctx context.Context, hashes []lightsystem.Hash, newAddresses []AddressWithTree) (proof *lightsystem.ValidityProof, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetValidityProof")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	expected := len(hashes) + len(newAddresses)
	tracer.AddAttributes(map[string]interface{}{
		"hashes":    len(hashes),
		"addresses": len(newAddresses),
	})

	if expected == 0 {
		return &lightsystem.ValidityProof{}, nil
	}

	params := validityProofParams{
		Hashes:                make([]string, len(hashes)),
		NewAddressesWithTrees: make([]addressWithTreeParam, len(newAddresses)),
	}
	for i, h := range hashes {
		params.Hashes[i] = h.String()
	}
	for i, a := range newAddresses {
		params.NewAddressesWithTrees[i] = addressWithTreeParam{
			Address: a.Address.String(),
			Tree:    base58.Encode(a.Tree),
		}
	}

	start := time.Now()

	var resp validityProofResponse
	if err := c.call(ctx, &resp, "getValidityProof", params); err != nil {
		return nil, errors.Wrap(err, "failed to get validity proof")
	}

	metrics.RecordDuration(ctx, validityProofLatencyMetricName, time.Since(start))
	metrics.RecordCount(ctx, validityProofEntriesMetricName, uint64(expected))

	proof, err = resp.Value.toValidityProof(expected, c.queues)
	if errors.Is(err, lightsystem.ErrIncompleteProof) {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method":   "GetValidityProof",
			"slot":     resp.Context.Slot,
			"expected": expected,
		}).Warn("indexer returned an incomplete proof")

		metrics.RecordEvent(ctx, incompleteProofEventName, map[string]interface{}{
			"slot":     resp.Context.Slot,
			"expected": expected,
		})
	}
	if err != nil {
		return nil, err
	}

	return proof, nil
}

func (c *client) GetValidityProofForQuery(ctx context.Context, query *lightsystem.ProofQuery) (*lightsystem.ValidityProof, error) {
	inputs := query.InputAccounts()
	hashes := make([]lightsystem.Hash, len(inputs))
	for i, input := range inputs {
		hashes[i] = input.Hash
	}

	requests := query.NewAddresses()
	newAddresses := make([]AddressWithTree, len(requests))
	for i, request := range requests {
		newAddresses[i] = AddressWithTree{
			Address: request.Address(),
			Tree:    request.AddressTree,
		}
	}

	proof, err := c.GetValidityProof(ctx, hashes, newAddresses)
	if err != nil {
		return nil, err
	}

	if err := proof.Validate(query); err != nil {
		return nil, errors.Wrap(err, "validity proof does not match query")
	}

	return proof, nil
}

func (c *client) GetCompressedAccount(ctx context.Context, address lightsystem.FieldElement) (*lightsystem.CompressedAccountWithMerkleContext, error) {
	return c.getCompressedAccount(ctx, "GetCompressedAccount", accountParams{Address: pointer.String(address.String())})
}

func (c *client) GetCompressedAccountByHash(ctx context.Context, hash lightsystem.Hash) (*lightsystem.CompressedAccountWithMerkleContext, error) {
	return c.getCompressedAccount(ctx, "GetCompressedAccountByHash", accountParams{Hash: pointer.String(hash.String())})
}

func (c *client) getCompressedAccount(ctx context.Context, methodName string, params accountParams) (account *lightsystem.CompressedAccountWithMerkleContext, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, methodName)
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	var resp accountResponse
	if err := c.call(ctx, &resp, "getCompressedAccount", params); err != nil {
		return nil, errors.Wrap(err, "failed to get compressed account")
	}

	if resp.Value == nil {
		return nil, ErrAccountNotFound
	}

	account, err = resp.Value.toAccount(c.queues)
	if err != nil {
		return nil, errors.Wrap(err, "invalid compressed account")
	}
	return account, nil
}

func (c *client) GetCompressedAccountsByOwner(ctx context.Context, owner ed25519.PublicKey) (accounts []*lightsystem.CompressedAccountWithMerkleContext, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetCompressedAccountsByOwner")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	params := accountsByOwnerParams{
		Owner: base58.Encode(owner),
		Limit: c.pageLimit,
	}

	for {
		var resp accountsByOwnerResponse
		if err := c.call(ctx, &resp, "getCompressedAccountsByOwner", params); err != nil {
			return nil, errors.Wrap(err, "failed to get compressed accounts by owner")
		}

		for _, item := range resp.Value.Items {
			account, err := item.toAccount(c.queues)
			if err != nil {
				return nil, errors.Wrap(err, "invalid compressed account")
			}
			accounts = append(accounts, account)
		}

		if resp.Value.Cursor == nil || len(resp.Value.Items) == 0 {
			break
		}

		params.Cursor = pointer.StringIfValid(len(*resp.Value.Cursor) > 0, *resp.Value.Cursor)
		if params.Cursor == nil {
			break
		}
	}

	tracer.AddAttribute("accounts", len(accounts))
	return accounts, nil
}
