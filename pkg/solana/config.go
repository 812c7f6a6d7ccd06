package solana

import (
	"context"
	"net/http"
	"time"

	"github.com/ybbus/jsonrpc"

	"github.com/nina-protocol/nina-go/pkg/config"
	"github.com/nina-protocol/nina-go/pkg/config/env"
)

type Environment string

const (
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

const (
	EndpointConfigEnvName = "SOLANA_RPC_ENDPOINT"
	defaultEndpoint       = string(EnvironmentLocal)

	RequestTimeoutConfigEnvName = "SOLANA_RPC_REQUEST_TIMEOUT"
	defaultRequestTimeout       = 30 * time.Second
)

// Config configures a Solana RPC client.
type Config struct {
	Endpoint       config.String
	RequestTimeout config.Duration
}

// NewConfigFromEnv loads the RPC configuration from the environment,
// defaulting to a local test validator.
func NewConfigFromEnv() *Config {
	return &Config{
		Endpoint:       env.NewStringConfig(EndpointConfigEnvName, defaultEndpoint),
		RequestTimeout: env.NewDurationConfig(RequestTimeoutConfigEnvName, defaultRequestTimeout),
	}
}

// NewFromConfig returns a client using the endpoint and timeout currently
// held by cfg.
func NewFromConfig(ctx context.Context, cfg *Config) Client {
	return NewWithRPCOptions(cfg.Endpoint.Get(ctx), &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout.Get(ctx)},
	})
}
