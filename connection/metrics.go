package connection

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector 驱动和工厂上报会话统计
type MetricsCollector interface {
	IncrementConnectionsCreated(protocol Protocol)
	IncrementConnectionsFailed(protocol Protocol)

	RecordOperationDuration(protocol Protocol, operation string, duration time.Duration)
	IncrementOperationCount(protocol Protocol, operation string)
	IncrementOperationErrors(protocol Protocol, operation string)

	GetMetrics() *MetricsSnapshot
}

// MetricsSnapshot 某一时刻的统计
type MetricsSnapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`

	ConnectionMetrics map[Protocol]*ConnectionMetrics            `json:"connection_metrics"`
	OperationMetrics  map[Protocol]map[string]*OperationMetrics `json:"operation_metrics"`
}

type ConnectionMetrics struct {
	Protocol Protocol `json:"protocol"`
	Created  int64    `json:"created"`
	Failed   int64    `json:"failed"`
}

type OperationMetrics struct {
	Operation string `json:"operation"`

	Count  int64 `json:"count"`
	Errors int64 `json:"errors"`

	TotalDuration time.Duration `json:"total_duration"`
	MinDuration   time.Duration `json:"min_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// Totals 汇总所有协议和操作的次数与失败数
func (s *MetricsSnapshot) Totals() (count, errs int64) {
	if s == nil {
		return 0, 0
	}
	for _, ops := range s.OperationMetrics {
		for _, op := range ops {
			count += op.Count
			errs += op.Errors
		}
	}
	return count, errs
}

// Operations 按协议、操作名排序后的操作统计
func (s *MetricsSnapshot) Operations() []*OperationMetrics {
	if s == nil {
		return nil
	}
	protocols := make([]string, 0, len(s.OperationMetrics))
	for p := range s.OperationMetrics {
		protocols = append(protocols, string(p))
	}
	sort.Strings(protocols)

	var out []*OperationMetrics
	for _, p := range protocols {
		ops := s.OperationMetrics[Protocol(p)]
		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, ops[name])
		}
	}
	return out
}

type opKey struct {
	protocol  Protocol
	operation string
}

// DefaultMetricsCollector 进程内统计，一把锁保护所有计数
type DefaultMetricsCollector struct {
	mu          sync.Mutex
	connections map[Protocol]*ConnectionMetrics
	operations  map[opKey]*OperationMetrics
	startTime   time.Time
}

// NewDefaultMetricsCollector 创建默认指标收集器
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		connections: make(map[Protocol]*ConnectionMetrics),
		operations:  make(map[opKey]*OperationMetrics),
		startTime:   time.Now(),
	}
}

func (c *DefaultMetricsCollector) connection(protocol Protocol) *ConnectionMetrics {
	m, ok := c.connections[protocol]
	if !ok {
		m = &ConnectionMetrics{Protocol: protocol}
		c.connections[protocol] = m
	}
	return m
}

func (c *DefaultMetricsCollector) operation(protocol Protocol, operation string) *OperationMetrics {
	key := opKey{protocol, operation}
	m, ok := c.operations[key]
	if !ok {
		m = &OperationMetrics{Operation: operation}
		c.operations[key] = m
	}
	return m
}

func (c *DefaultMetricsCollector) IncrementConnectionsCreated(protocol Protocol) {
	c.mu.Lock()
	c.connection(protocol).Created++
	c.mu.Unlock()
}

func (c *DefaultMetricsCollector) IncrementConnectionsFailed(protocol Protocol) {
	c.mu.Lock()
	c.connection(protocol).Failed++
	c.mu.Unlock()
}

// RecordOperationDuration 记录操作耗时，最小值从第一次记录开始算
func (c *DefaultMetricsCollector) RecordOperationDuration(protocol Protocol, operation string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.operation(protocol, operation)
	m.TotalDuration += duration
	if m.MinDuration == 0 || duration < m.MinDuration {
		m.MinDuration = duration
	}
	if duration > m.MaxDuration {
		m.MaxDuration = duration
	}
}

func (c *DefaultMetricsCollector) IncrementOperationCount(protocol Protocol, operation string) {
	c.mu.Lock()
	c.operation(protocol, operation).Count++
	c.mu.Unlock()
}

func (c *DefaultMetricsCollector) IncrementOperationErrors(protocol Protocol, operation string) {
	c.mu.Lock()
	c.operation(protocol, operation).Errors++
	c.mu.Unlock()
}

// GetMetrics 返回统计的拷贝
func (c *DefaultMetricsCollector) GetMetrics() *MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	snapshot := &MetricsSnapshot{
		Timestamp:         now,
		Uptime:            now.Sub(c.startTime),
		ConnectionMetrics: make(map[Protocol]*ConnectionMetrics, len(c.connections)),
		OperationMetrics:  make(map[Protocol]map[string]*OperationMetrics),
	}
	for p, m := range c.connections {
		cm := *m
		snapshot.ConnectionMetrics[p] = &cm
	}
	for key, m := range c.operations {
		om := *m
		if om.Count > 0 {
			om.AvgDuration = om.TotalDuration / time.Duration(om.Count)
		}
		ops, ok := snapshot.OperationMetrics[key.protocol]
		if !ok {
			ops = make(map[string]*OperationMetrics)
			snapshot.OperationMetrics[key.protocol] = ops
		}
		ops[key.operation] = &om
	}
	return snapshot
}

var globalMetricsCollector MetricsCollector = NewDefaultMetricsCollector()

// GetGlobalMetricsCollector 工厂未指定收集器时使用的进程级收集器
func GetGlobalMetricsCollector() MetricsCollector {
	return globalMetricsCollector
}

// recordOperation 统计一次操作
func recordOperation(collector MetricsCollector, protocol Protocol, operation string, start time.Time, err error) {
	if collector == nil {
		return
	}
	collector.IncrementOperationCount(protocol, operation)
	collector.RecordOperationDuration(protocol, operation, time.Since(start))
	if err != nil {
		collector.IncrementOperationErrors(protocol, operation)
	}
}
