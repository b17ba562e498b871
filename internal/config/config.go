package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ftd_cliconf/inventory"
	"github.com/charlesren/ftd_cliconf/report"
	"github.com/charlesren/userconfig"
	"github.com/spf13/viper"
)

// DeviceConfig 直接连接单台设备时的参数
type DeviceConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	Protocol           string        `mapstructure:"protocol"` // ssh / scrapli
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	TimeoutOps         time.Duration `mapstructure:"timeout_ops"`
	StrictHostChecking bool          `mapstructure:"strict_host_checking"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      int    `mapstructure:"level"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type ZabbixConfig struct {
	APIURL   string              `mapstructure:"api_url"`
	Username string              `mapstructure:"username"`
	Password string              `mapstructure:"password"`
	Sender   report.ZabbixConfig `mapstructure:"sender"`
}

type InventoryConfig struct {
	Workbook string `mapstructure:"workbook"`
	Sheet    string `mapstructure:"sheet"`
}

type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	Log       LogConfig       `mapstructure:"log"`
	Zabbix    ZabbixConfig    `mapstructure:"zabbix"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:           22,
			Protocol:       string(connection.ProtocolScrapli),
			ConnectTimeout: 30 * time.Second,
			TimeoutOps:     60 * time.Second,
		},
		Log: LogConfig{
			File:       "../logs/ftdctl.log",
			Level:      0,
			MaxAge:     3,
			MaxSize:    100,
			MaxBackups: 3,
		},
		Zabbix: ZabbixConfig{
			Sender: report.ZabbixConfig{
				ProxyPort:         "10051",
				ConnectionTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      5 * time.Second,
				PoolSize:          1,
			},
		},
	}
}

// Load 读取配置；path 为空时按默认搜索路径查找，找不到文件则只用默认值和环境变量
func Load(path string) (*Config, error) {
	var v *viper.Viper
	if path != "" {
		var err error
		if v, err = userconfig.NewUserConfig(userconfig.WithPath(path)); err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	} else {
		v = viper.New()
		v.SetConfigName("ftdctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ftdctl/")
		v.AddConfigPath("/etc/ftdctl/")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration file: %w", err)
			}
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()

	v.SetEnvPrefix("FTDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("device.host", "")
	v.SetDefault("device.username", "")
	v.SetDefault("device.password", "")
	v.SetDefault("device.port", config.Device.Port)
	v.SetDefault("device.protocol", config.Device.Protocol)
	v.SetDefault("device.connect_timeout", config.Device.ConnectTimeout)
	v.SetDefault("device.timeout_ops", config.Device.TimeoutOps)
	v.SetDefault("device.strict_host_checking", false)

	v.SetDefault("log.file", config.Log.File)
	v.SetDefault("log.level", config.Log.Level)
	v.SetDefault("log.max_age", config.Log.MaxAge)
	v.SetDefault("log.max_size", config.Log.MaxSize)
	v.SetDefault("log.max_backups", config.Log.MaxBackups)

	v.SetDefault("zabbix.api_url", "")
	v.SetDefault("zabbix.username", "")
	v.SetDefault("zabbix.password", "")
	v.SetDefault("zabbix.sender.proxyip", "")
	v.SetDefault("zabbix.sender.host", "")
	v.SetDefault("zabbix.sender.proxyport", config.Zabbix.Sender.ProxyPort)
	v.SetDefault("zabbix.sender.connection_timeout", config.Zabbix.Sender.ConnectionTimeout)
	v.SetDefault("zabbix.sender.read_timeout", config.Zabbix.Sender.ReadTimeout)
	v.SetDefault("zabbix.sender.write_timeout", config.Zabbix.Sender.WriteTimeout)
	v.SetDefault("zabbix.sender.pool_size", config.Zabbix.Sender.PoolSize)

	v.SetDefault("inventory.workbook", "")
	v.SetDefault("inventory.sheet", "")

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Device.Port <= 0 || config.Device.Port > 65535 {
		return fmt.Errorf("the device port must be between 1 and 65535")
	}
	switch connection.Protocol(config.Device.Protocol) {
	case connection.ProtocolSSH, connection.ProtocolScrapli:
	default:
		return fmt.Errorf("invalid device protocol: %s", config.Device.Protocol)
	}
	if config.Device.ConnectTimeout <= 0 || config.Device.TimeoutOps <= 0 {
		return fmt.Errorf("the device timeouts must be positive")
	}
	// 与 zap 级别一致，-1 为 debug
	if config.Log.Level < -1 || config.Log.Level > 5 {
		return fmt.Errorf("invalid log level: %d", config.Log.Level)
	}
	if config.Zabbix.Sender.PoolSize < 0 {
		return fmt.Errorf("the zabbix sender pool size cannot be negative")
	}
	return nil
}

// DeviceDefaults 清单中的设备沿用本地配置的端口、协议和超时
func (c *Config) DeviceDefaults() inventory.DeviceDefaults {
	return inventory.DeviceDefaults{
		Port:           c.Device.Port,
		Protocol:       connection.Protocol(c.Device.Protocol),
		ConnectTimeout: c.Device.ConnectTimeout,
		TimeoutOps:     c.Device.TimeoutOps,
	}
}

// ConnectionConfig builds the transport config of the directly configured device.
func (c *Config) ConnectionConfig() (*connection.EnhancedConnectionConfig, error) {
	d := c.Device
	builder := connection.NewConfigBuilder().
		WithBasicAuth(d.Host, d.Username, d.Password).
		WithPort(d.Port).
		WithProtocol(connection.Protocol(d.Protocol), connection.PlatformCiscoFTD).
		WithTimeouts(d.ConnectTimeout, d.TimeoutOps)
	if d.StrictHostChecking {
		builder = builder.WithScrapliConfig(&connection.ScrapliConfig{StrictHostChecking: true})
	}
	return builder.Build()
}
