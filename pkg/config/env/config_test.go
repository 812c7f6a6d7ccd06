package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nina-protocol/nina-go/pkg/config"
)

func TestConfig_Get(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"

	t.Setenv(env, "value")
	v, err := NewConfig(env).Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	t.Setenv(env, "")
	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestConfig_KeyIsUpperCased(t *testing.T) {
	t.Setenv("PHOTON_TEST_ENDPOINT", "http://localhost:8784")

	assert.Equal(t, "http://localhost:8784", NewStringConfig("photon_test_endpoint", "").Get(context.Background()))
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_LIMIT", "42")
	t.Setenv("ENV_CONFIG_TEST_TIMEOUT", "250ms")

	assert.EqualValues(t, 42, NewUint64Config("ENV_CONFIG_TEST_LIMIT", 1).Get(ctx))
	assert.Equal(t, 250*time.Millisecond, NewDurationConfig("ENV_CONFIG_TEST_TIMEOUT", time.Second).Get(ctx))

	assert.EqualValues(t, 7, NewUint64Config("ENV_CONFIG_TEST_MISSING", 7).Get(ctx))
	assert.Equal(t, "fallback", NewStringConfig("ENV_CONFIG_TEST_MISSING", "fallback").Get(ctx))
}
