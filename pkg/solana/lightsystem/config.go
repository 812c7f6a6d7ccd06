package lightsystem

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/config"
	"github.com/nina-protocol/nina-go/pkg/config/env"
)

const (
	StateTreeConfigEnvName      = "LIGHT_STATE_TREE"
	NullifierQueueConfigEnvName = "LIGHT_NULLIFIER_QUEUE"
	AddressTreeConfigEnvName    = "LIGHT_ADDRESS_TREE"
	AddressQueueConfigEnvName   = "LIGHT_ADDRESS_QUEUE"

	// Localnet test tree accounts created by the light test validator
	DefaultStateTree      = "smt1NamzXdq4AMqS2fS2F1i5KTYPZRhoHgWx38d8WsT"
	DefaultNullifierQueue = "nfq1NvQDJ2GEgnS8zt9prAe8rjjpAW1zFkrvZoBR148"
	DefaultAddressTree    = "amt1Ayt45jfbdw5YSo7iz6WZxUmnZsQTYXy82hVwyC2"
	DefaultAddressQueue   = "aq1S9z4reTSQAdgWHGD2zDaS39sjGrAxbR31vxJ2F4F"
)

// Config holds the tree accounts used when a caller explicitly asks for the
// default state or address space.
type Config struct {
	StateTree      config.String
	NullifierQueue config.String
	AddressTree    config.String
	AddressQueue   config.String
}

// NewConfigFromEnv loads tree accounts from the environment, defaulting to the
// localnet test trees.
func NewConfigFromEnv() *Config {
	return &Config{
		StateTree:      env.NewStringConfig(StateTreeConfigEnvName, DefaultStateTree),
		NullifierQueue: env.NewStringConfig(NullifierQueueConfigEnvName, DefaultNullifierQueue),
		AddressTree:    env.NewStringConfig(AddressTreeConfigEnvName, DefaultAddressTree),
		AddressQueue:   env.NewStringConfig(AddressQueueConfigEnvName, DefaultAddressQueue),
	}
}

// TreeAccounts is a resolved set of default tree accounts.
type TreeAccounts struct {
	StateTree      ed25519.PublicKey
	NullifierQueue ed25519.PublicKey
	AddressTree    ed25519.PublicKey
	AddressQueue   ed25519.PublicKey
}

// TreeAccounts resolves the configured tree accounts.
func (c *Config) TreeAccounts(ctx context.Context) (*TreeAccounts, error) {
	var trees TreeAccounts
	for _, v := range []struct {
		name string
		cfg  config.String
		dst  *ed25519.PublicKey
	}{
		{"state tree", c.StateTree, &trees.StateTree},
		{"nullifier queue", c.NullifierQueue, &trees.NullifierQueue},
		{"address tree", c.AddressTree, &trees.AddressTree},
		{"address queue", c.AddressQueue, &trees.AddressQueue},
	} {
		raw, err := v.cfg.GetSafe(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get %s config", v.name)
		}

		decoded, err := base58.Decode(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s config", v.name)
		}
		if len(decoded) != ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid %s config: expected %d bytes, got %d", v.name, ed25519.PublicKeySize, len(decoded))
		}

		*v.dst = decoded
	}
	return &trees, nil
}

// StateFallback names the default state tree as an explicit state context.
func (t *TreeAccounts) StateFallback() StateFallback {
	return StateFallback{
		MerkleTree:     t.StateTree,
		NullifierQueue: t.NullifierQueue,
	}
}

// AddressFallback names the default address tree as an explicit address
// context, validated against the provided root index.
func (t *TreeAccounts) AddressFallback(rootIndex uint16) *AddressFallback {
	return &AddressFallback{
		AddressTree:  t.AddressTree,
		AddressQueue: t.AddressQueue,
		RootIndex:    rootIndex,
	}
}

// QueueForTree returns the queue paired with a known tree.
func (t *TreeAccounts) QueueForTree(tree ed25519.PublicKey) (ed25519.PublicKey, error) {
	switch {
	case string(tree) == string(t.StateTree):
		return t.NullifierQueue, nil
	case string(tree) == string(t.AddressTree):
		return t.AddressQueue, nil
	}
	return nil, errors.Wrapf(ErrUnknownTree, "tree %s", base58.Encode(tree))
}
