package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_AddContext(t *testing.T) {
	cfg := &Config{}

	cfg.AddContext("dev", &Context{Server: "http://localhost:4001"})

	require.Contains(t, cfg.Contexts, "dev")
	assert.Equal(t, "dev", cfg.Contexts["dev"].Name)
	assert.Equal(t, "http://localhost:4001", cfg.Contexts["dev"].Server)

	// Re-adding under the same name replaces the entry
	cfg.AddContext("dev", &Context{Server: "http://localhost:4002"})
	assert.Equal(t, "http://localhost:4002", cfg.Contexts["dev"].Server)
	assert.Len(t, cfg.Contexts, 1)
}

func TestConfig_GetCurrentContext(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.GetCurrentContext()
	assert.Error(t, err)

	cfg.AddContext("prod", &Context{Server: "https://timer.example.com"})

	cfg.CurrentContext = "missing"
	_, err = cfg.GetCurrentContext()
	assert.Error(t, err)

	cfg.CurrentContext = "prod"
	ctx, err := cfg.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "https://timer.example.com", ctx.Server)
}

func TestConfig_SetCurrentContext(t *testing.T) {
	cfg := &Config{}
	cfg.AddContext("dev", &Context{Server: "http://localhost:4001"})

	assert.Error(t, cfg.SetCurrentContext("prod"))
	assert.Empty(t, cfg.CurrentContext)

	require.NoError(t, cfg.SetCurrentContext("dev"))
	assert.Equal(t, "dev", cfg.CurrentContext)
}

func TestConfig_RemoveContext(t *testing.T) {
	cfg := &Config{}
	cfg.AddContext("dev", &Context{Server: "http://localhost:4001"})
	cfg.AddContext("prod", &Context{Server: "https://timer.example.com"})
	require.NoError(t, cfg.SetCurrentContext("dev"))

	assert.Error(t, cfg.RemoveContext("staging"))

	// Removing the current context clears the selection
	require.NoError(t, cfg.RemoveContext("dev"))
	assert.Empty(t, cfg.CurrentContext)
	assert.NotContains(t, cfg.Contexts, "dev")

	require.NoError(t, cfg.RemoveContext("prod"))
	assert.Empty(t, cfg.Contexts)
}
