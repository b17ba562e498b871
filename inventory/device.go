package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charlesren/ftd_cliconf/connection"
)

// 主机宏，描述如何登录该主机对应的 FTD
const (
	MacroIP       = "{$FTD_IP}"
	MacroPort     = "{$FTD_PORT}"
	MacroUsername = "{$FTD_USERNAME}"
	MacroPassword = "{$FTD_PASSWORD}"
	MacroProtocol = "{$FTD_PROTOCOL}"
)

// 设备来源，记录在连接配置的 Metadata["source"] 中
const (
	MetadataSource = "source"
	SourceWorkbook = "workbook"
	SourceZabbix   = "zabbix"
)

// Device 一台受管 FTD
type Device struct {
	Name   string
	Config connection.EnhancedConnectionConfig
}

// Source 设备来自哪份清单
func (d Device) Source() string {
	s, _ := d.Config.Metadata[MetadataSource].(string)
	return s
}

// DeviceDefaults 清单中未填写的字段取这里的值
type DeviceDefaults struct {
	Port           int
	Protocol       connection.Protocol
	ConnectTimeout time.Duration
	TimeoutOps     time.Duration
}

type deviceFields struct {
	host, port, username, password, protocol string
	source                                   string
}

func (f deviceFields) build(name string, defaults DeviceDefaults) (Device, error) {
	builder := connection.NewConfigBuilder().
		WithBasicAuth(strings.TrimSpace(f.host), f.username, f.password).
		WithPort(defaults.Port).
		WithTimeouts(defaults.ConnectTimeout, defaults.TimeoutOps)
	if defaults.Protocol != "" {
		builder = builder.WithProtocol(defaults.Protocol, connection.PlatformCiscoFTD)
	}
	if p := strings.TrimSpace(f.port); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 {
			return Device{}, fmt.Errorf("device %s: invalid port %q", name, f.port)
		}
		builder = builder.WithPort(port)
	}
	if p := strings.TrimSpace(f.protocol); p != "" {
		builder = builder.WithProtocol(connection.Protocol(strings.ToLower(p)), connection.PlatformCiscoFTD)
	}

	cfg, err := builder.
		WithLabels(map[string]string{"name": name}).
		WithMetadata(MetadataSource, f.source).
		Build()
	if err != nil {
		return Device{}, fmt.Errorf("device %s: %w", name, err)
	}
	return Device{Name: name, Config: *cfg}, nil
}
