package photon

import (
	"context"
	"net/http"
	"time"

	"github.com/ybbus/jsonrpc"

	"github.com/nina-protocol/nina-go/pkg/config"
	"github.com/nina-protocol/nina-go/pkg/config/env"
)

const (
	EndpointConfigEnvName = "PHOTON_ENDPOINT"
	defaultEndpoint       = "http://127.0.0.1:8784"

	MaxAttemptsConfigEnvName = "PHOTON_MAX_ATTEMPTS"
	defaultMaxAttempts       = 3

	PageLimitConfigEnvName = "PHOTON_PAGE_LIMIT"
	defaultPageLimit       = 1000

	RequestTimeoutConfigEnvName = "PHOTON_REQUEST_TIMEOUT"
	defaultRequestTimeout       = 30 * time.Second

	// Zero disables client side rate limiting.
	RequestsPerSecondConfigEnvName = "PHOTON_REQUESTS_PER_SECOND"
	defaultRequestsPerSecond       = 0
)

// Config configures a photon indexer client.
type Config struct {
	Endpoint       config.String
	MaxAttempts    config.Uint64
	PageLimit      config.Uint64
	RequestTimeout config.Duration

	RequestsPerSecond config.Uint64
}

// NewConfigFromEnv loads the client configuration from the environment,
// defaulting to a local indexer.
func NewConfigFromEnv() *Config {
	return &Config{
		Endpoint:       env.NewStringConfig(EndpointConfigEnvName, defaultEndpoint),
		MaxAttempts:    env.NewUint64Config(MaxAttemptsConfigEnvName, defaultMaxAttempts),
		PageLimit:      env.NewUint64Config(PageLimitConfigEnvName, defaultPageLimit),
		RequestTimeout: env.NewDurationConfig(RequestTimeoutConfigEnvName, defaultRequestTimeout),

		RequestsPerSecond: env.NewUint64Config(RequestsPerSecondConfigEnvName, defaultRequestsPerSecond),
	}
}

// Options are the resolved, static settings of a client.
type Options struct {
	Endpoint    string
	MaxAttempts uint
	PageLimit   uint64
	RPC         *jsonrpc.RPCClientOpts

	// RequestsPerSecond limits each RPC method independently. Zero means
	// unlimited.
	RequestsPerSecond float64
}

// Options resolves the config into client Options.
func (c *Config) Options(ctx context.Context) *Options {
	return &Options{
		Endpoint:    c.Endpoint.Get(ctx),
		MaxAttempts: uint(c.MaxAttempts.Get(ctx)),
		PageLimit:   c.PageLimit.Get(ctx),

		RequestsPerSecond: float64(c.RequestsPerSecond.Get(ctx)),

		RPC: &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: c.RequestTimeout.Get(ctx)},
		},
	}
}

func (o *Options) withDefaults() *Options {
	opts := *o
	if len(opts.Endpoint) == 0 {
		opts.Endpoint = defaultEndpoint
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.PageLimit == 0 {
		opts.PageLimit = defaultPageLimit
	}
	return &opts
}
