package connection

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// 增强的配置结构
type EnhancedConnectionConfig struct {
	// 基础连接信息
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// 协议配置
	Protocol Protocol `json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	Platform Platform `json:"platform" yaml:"platform" mapstructure:"platform"`

	// 超时配置
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"` // 单次连接建立超时
	TimeoutOps     time.Duration `json:"timeout_ops" yaml:"timeout_ops" mapstructure:"timeout_ops"`             // 单条命令等待提示符超时

	// SSH特定配置
	SSHConfig *SSHConfig `json:"ssh_config,omitempty" yaml:"ssh_config,omitempty" mapstructure:"ssh_config"`

	// Scrapli特定配置
	ScrapliConfig *ScrapliConfig `json:"scrapli_config,omitempty" yaml:"scrapli_config,omitempty" mapstructure:"scrapli_config"`

	// 标签和元数据
	Labels   map[string]string      `json:"labels,omitempty" yaml:"labels,omitempty" mapstructure:"labels"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// SSH特定配置
type SSHConfig struct {
	RequestPty   bool   `json:"request_pty" yaml:"request_pty" mapstructure:"request_pty"`
	TerminalType string `json:"terminal_type" yaml:"terminal_type" mapstructure:"terminal_type"`
	WindowWidth  int    `json:"window_width" yaml:"window_width" mapstructure:"window_width"`
	WindowHeight int    `json:"window_height" yaml:"window_height" mapstructure:"window_height"`
}

// Scrapli特定配置
type ScrapliConfig struct {
	TransportType      string `json:"transport_type" yaml:"transport_type" mapstructure:"transport_type"` // system, standard
	StrictHostChecking bool   `json:"strict_host_checking" yaml:"strict_host_checking" mapstructure:"strict_host_checking"`
	CommsReturnChar    string `json:"comms_return_char" yaml:"comms_return_char" mapstructure:"comms_return_char"`
}

// 配置构建器
type ConfigBuilder struct {
	config *EnhancedConnectionConfig
}

// NewConfigBuilder 创建配置构建器
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: &EnhancedConnectionConfig{
			// 设置默认值
			Port:           22,
			Protocol:       ProtocolScrapli,
			Platform:       PlatformCiscoFTD,
			ConnectTimeout: 30 * time.Second,
			TimeoutOps:     60 * time.Second,
			SSHConfig:      DefaultSSHConfig(),
			Labels:         make(map[string]string),
			Metadata:       make(map[string]interface{}),
		},
	}
}

// DefaultSSHConfig 默认PTY参数，宽度足够避免FTD折行
func DefaultSSHConfig() *SSHConfig {
	return &SSHConfig{
		RequestPty:   true,
		TerminalType: "vt100",
		WindowWidth:  511,
		WindowHeight: 24,
	}
}

// WithBasicAuth 设置基础认证
func (b *ConfigBuilder) WithBasicAuth(host, username, password string) *ConfigBuilder {
	b.config.Host = host
	b.config.Username = username
	b.config.Password = password
	return b
}

// WithPort 设置端口
func (b *ConfigBuilder) WithPort(port int) *ConfigBuilder {
	if port > 0 {
		b.config.Port = port
	}
	return b
}

// WithProtocol 设置协议和平台
func (b *ConfigBuilder) WithProtocol(protocol Protocol, platform Platform) *ConfigBuilder {
	b.config.Protocol = protocol
	b.config.Platform = platform
	return b
}

// WithTimeouts 设置超时配置
func (b *ConfigBuilder) WithTimeouts(connect, ops time.Duration) *ConfigBuilder {
	if connect > 0 {
		b.config.ConnectTimeout = connect
	}
	if ops > 0 {
		b.config.TimeoutOps = ops
	}
	return b
}

// WithSSHConfig 设置SSH配置
func (b *ConfigBuilder) WithSSHConfig(config *SSHConfig) *ConfigBuilder {
	b.config.SSHConfig = config
	return b
}

// WithScrapliConfig 设置Scrapli配置
func (b *ConfigBuilder) WithScrapliConfig(config *ScrapliConfig) *ConfigBuilder {
	b.config.ScrapliConfig = config
	return b
}

// WithLabels 设置标签
func (b *ConfigBuilder) WithLabels(labels map[string]string) *ConfigBuilder {
	for k, v := range labels {
		b.config.Labels[k] = v
	}
	return b
}

// WithMetadata 设置元数据
func (b *ConfigBuilder) WithMetadata(key string, value interface{}) *ConfigBuilder {
	b.config.Metadata[key] = value
	return b
}

// Build 构建配置
func (b *ConfigBuilder) Build() (*EnhancedConnectionConfig, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// Validate 验证配置
func (c *EnhancedConnectionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.Protocol {
	case ProtocolSSH, ProtocolScrapli:
	case "":
		return fmt.Errorf("protocol is required")
	default:
		return fmt.Errorf("unsupported protocol: %s", c.Protocol)
	}
	if !FTDCapability(c.Protocol).SupportsPlatform(c.Platform) {
		return fmt.Errorf("unsupported platform: %s", c.Platform)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.TimeoutOps <= 0 {
		return fmt.Errorf("ops timeout must be positive")
	}
	return nil
}

// Address returns host:port for dialing.
func (c *EnhancedConnectionConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
