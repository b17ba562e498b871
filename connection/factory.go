package connection

import "fmt"

type ProtocolFactory interface {
	Create(config EnhancedConnectionConfig) (ProtocolDriver, error)
	HealthCheck(driver ProtocolDriver) bool
}

// NewFactory 按协议返回工厂
func NewFactory(protocol Protocol, metrics MetricsCollector) (ProtocolFactory, error) {
	switch protocol {
	case ProtocolScrapli:
		return &ScrapliFactory{Metrics: metrics}, nil
	case ProtocolSSH:
		return &SSHFactory{Metrics: metrics}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
}

// Open builds a driver for config using the factory of its protocol.
func Open(config EnhancedConnectionConfig, metrics MetricsCollector) (ProtocolDriver, error) {
	factory, err := NewFactory(config.Protocol, metrics)
	if err != nil {
		return nil, err
	}
	return factory.Create(config)
}
