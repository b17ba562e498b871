package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigBuilder_Defaults(t *testing.T) {
	cfg, err := NewConfigBuilder().
		WithBasicAuth("192.168.1.1", "admin", "password").
		WithLabels(map[string]string{"site": "dc1"}).
		WithMetadata("owner", "netops").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 22, cfg.Port)
	assert.Equal(t, ProtocolScrapli, cfg.Protocol)
	assert.Equal(t, PlatformCiscoFTD, cfg.Platform)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.TimeoutOps)
	assert.Equal(t, "dc1", cfg.Labels["site"])
	assert.Equal(t, "netops", cfg.Metadata["owner"])
	require.NotNil(t, cfg.SSHConfig)
	assert.True(t, cfg.SSHConfig.RequestPty)
	assert.Equal(t, "192.168.1.1:22", cfg.Address())
}

func TestConfigBuilder_Overrides(t *testing.T) {
	cfg, err := NewConfigBuilder().
		WithBasicAuth("fe80::1", "admin", "password").
		WithPort(2222).
		WithProtocol(ProtocolSSH, PlatformCiscoFTD).
		WithTimeouts(5*time.Second, 0).
		WithSSHConfig(&SSHConfig{TerminalType: "xterm"}).
		WithScrapliConfig(&ScrapliConfig{TransportType: "standard"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, ProtocolSSH, cfg.Protocol)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.TimeoutOps)
	assert.Equal(t, "xterm", cfg.SSHConfig.TerminalType)
	assert.Equal(t, "standard", cfg.ScrapliConfig.TransportType)
	assert.Equal(t, "[fe80::1]:2222", cfg.Address())
}

func TestEnhancedConnectionConfig_Validate(t *testing.T) {
	valid := func() EnhancedConnectionConfig {
		cfg, err := NewConfigBuilder().WithBasicAuth("10.0.0.1", "admin", "pw").Build()
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *EnhancedConnectionConfig)
		wantErr string
	}{
		{"missing host", func(c *EnhancedConnectionConfig) { c.Host = "" }, "host is required"},
		{"missing username", func(c *EnhancedConnectionConfig) { c.Username = "" }, "username is required"},
		{"missing password", func(c *EnhancedConnectionConfig) { c.Password = "" }, "password is required"},
		{"bad port", func(c *EnhancedConnectionConfig) { c.Port = 70000 }, "invalid port"},
		{"missing protocol", func(c *EnhancedConnectionConfig) { c.Protocol = "" }, "protocol is required"},
		{"bad protocol", func(c *EnhancedConnectionConfig) { c.Protocol = "telnet" }, "unsupported protocol"},
		{"bad platform", func(c *EnhancedConnectionConfig) { c.Platform = "cisco_iosxe" }, "unsupported platform"},
		{"zero connect timeout", func(c *EnhancedConnectionConfig) { c.ConnectTimeout = 0 }, "connect timeout"},
		{"zero ops timeout", func(c *EnhancedConnectionConfig) { c.TimeoutOps = 0 }, "ops timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())
}
