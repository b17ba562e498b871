package report

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charlesren/ftd_cliconf/cliconf"
	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ylog"
	"github.com/charlesren/zapix/sender"
)

const (
	KeyNetworkOS        = "ftd.network_os"
	KeyNetworkOSVersion = "ftd.network_os_version"
	KeyCLIOperations    = "ftd.cli.operations" // 本次会话发出的命令数
	KeyCLIErrors        = "ftd.cli.errors"     // 其中失败的命令数
)

type ZabbixConfig struct {
	ProxyIP           string        `mapstructure:"proxyip" yaml:"proxyip"`
	ProxyPort         string        `mapstructure:"proxyport" yaml:"proxyport"`
	Host              string        `mapstructure:"host" yaml:"host"` // zabbix 中的主机名
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PoolSize          int           `mapstructure:"pool_size" yaml:"pool_size"`
}

// 添加默认超时设置
func (c *ZabbixConfig) SetDefaults() {
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PoolSize == 0 {
		c.PoolSize = 1
	}
}

// ZabbixReporter 把设备信息推送到 zabbix trapper 监控项
type ZabbixReporter struct {
	config     ZabbixConfig
	serverAddr string
	send       func([]*sender.Metric) error
}

func NewZabbixReporter(config ZabbixConfig) (*ZabbixReporter, error) {
	if config.ProxyIP == "" || config.ProxyPort == "" {
		return nil, fmt.Errorf("zabbix proxy address is required")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("zabbix host is required")
	}
	config.SetDefaults()
	serverAddr := net.JoinHostPort(config.ProxyIP, config.ProxyPort)

	ylog.Infof("zabbix_sender", "creating zabbix reporter for %s with pool size %d", serverAddr, config.PoolSize)
	zabbixSender := sender.NewSender(
		serverAddr,
		config.ConnectionTimeout,
		config.ReadTimeout,
		config.WriteTimeout,
		config.PoolSize,
	)

	r := &ZabbixReporter{config: config, serverAddr: serverAddr}
	r.send = func(metrics []*sender.Metric) error {
		_, resTrapper, err := zabbixSender.SendMetrics(metrics)
		if err != nil {
			return err
		}
		if resTrapper.Response != "success" {
			return fmt.Errorf("trapper: %s - %s", resTrapper.Response, resTrapper.Info)
		}
		ylog.Debugf("zabbix_sender", "trapper response: %s", resTrapper.Info)
		return nil
	}
	return r, nil
}

// BuildMetrics 由设备信息生成 trapper 数据，stats 非空时附带会话命令统计
func BuildMetrics(host string, info cliconf.DeviceInfo, stats *connection.MetricsSnapshot, at time.Time) []*sender.Metric {
	clock := at.Unix()
	metrics := []*sender.Metric{
		{Host: host, Key: KeyNetworkOS, Value: info.NetworkOS, Clock: clock, Active: false},
		{Host: host, Key: KeyNetworkOSVersion, Value: info.NetworkOSVersion, Clock: clock, Active: false},
	}
	if stats == nil {
		return metrics
	}
	count, errs := stats.Totals()
	return append(metrics,
		&sender.Metric{Host: host, Key: KeyCLIOperations, Value: strconv.FormatInt(count, 10), Clock: clock, Active: false},
		&sender.Metric{Host: host, Key: KeyCLIErrors, Value: strconv.FormatInt(errs, 10), Clock: clock, Active: false},
	)
}

// Report sends the device facts collected at the given time.
func (r *ZabbixReporter) Report(info cliconf.DeviceInfo, stats *connection.MetricsSnapshot, at time.Time) error {
	metrics := BuildMetrics(r.config.Host, info, stats, at)
	for i, metric := range metrics {
		ylog.Debugf("zabbix_sender", "发送metric[%d/%d]: host=%s, key=%s, value=%s",
			i+1, len(metrics), metric.Host, metric.Key, metric.Value)
	}

	start := time.Now()
	if err := r.send(metrics); err != nil {
		ylog.Errorf("zabbix_sender", "failed to send %d metrics to %s after %v: %v",
			len(metrics), r.serverAddr, time.Since(start), err)
		return fmt.Errorf("zabbix send failed: %w (server=%s)", err, r.serverAddr)
	}
	if strings.HasPrefix(info.NetworkOSVersion, "Error:") {
		ylog.Warnf("zabbix_sender", "host %s reported without a parsed version", r.config.Host)
	}
	ylog.Infof("zabbix_sender", "sent %d metrics for %s in %v", len(metrics), r.config.Host, time.Since(start))
	return nil
}
