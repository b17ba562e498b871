package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesren/ftd_cliconf/terminal"
	"github.com/charlesren/ylog"
	"github.com/google/uuid"
	"github.com/scrapli/scrapligo/driver/generic"
	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/util"
)

// FTD 不在 scrapligo 内置平台中，使用 generic driver 加自定义提示符
type ScrapliFactory struct {
	Metrics MetricsCollector
}

func (f *ScrapliFactory) Create(config EnhancedConnectionConfig) (ProtocolDriver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	ylog.Debugf("scrapli", "creating driver: host=%s port=%d username=%s", config.Host, config.Port, config.Username)

	metrics := f.Metrics
	if metrics == nil {
		metrics = GetGlobalMetricsCollector()
	}

	driver, err := generic.NewDriver(config.Host, scrapliOptions(config)...)
	if err != nil {
		metrics.IncrementConnectionsFailed(ProtocolScrapli)
		return nil, fmt.Errorf("create driver failed: %w", err)
	}

	if err := driver.Open(); err != nil {
		metrics.IncrementConnectionsFailed(ProtocolScrapli)
		return nil, fmt.Errorf("open connection failed: %w", err)
	}
	metrics.IncrementConnectionsCreated(ProtocolScrapli)

	d := &ScrapliDriver{
		id:      uuid.NewString(),
		host:    config.Host,
		driver:  driver,
		channel: driver.Channel,
		timeout: config.TimeoutOps,
		metrics: metrics,
	}
	ylog.Infof("scrapli", "[%s] connected to %s", d.id, config.Address())
	return d, nil
}

func scrapliOptions(config EnhancedConnectionConfig) []util.Option {
	opts := []util.Option{
		options.WithAuthUsername(config.Username),
		options.WithAuthPassword(config.Password),
		options.WithPort(config.Port),
		options.WithTimeoutSocket(config.ConnectTimeout),
		options.WithTimeoutOps(config.TimeoutOps),
		options.WithPromptPattern(terminal.PromptPattern()),
	}

	sc := config.ScrapliConfig
	if sc == nil || !sc.StrictHostChecking {
		opts = append(opts, options.WithAuthNoStrictKey())
	}
	if sc != nil && sc.TransportType != "" {
		opts = append(opts, options.WithTransportType(sc.TransportType))
	}
	if sc != nil && sc.CommsReturnChar != "" {
		opts = append(opts, options.WithReturnChar(sc.CommsReturnChar))
	}
	return opts
}

func (f *ScrapliFactory) HealthCheck(driver ProtocolDriver) bool {
	return healthCheck(driver, 5*time.Second)
}

// healthCheck 能取到特权提示符即认为健康
func healthCheck(driver ProtocolDriver, timeout time.Duration) bool {
	if driver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prompt, err := driver.GetPrompt(ctx)
	if err != nil {
		ylog.Warnf("connection", "health check failed: %v", err)
		return false
	}
	return driver.GetCapability().InConfigMode(ConfigModePrivileged, prompt)
}
