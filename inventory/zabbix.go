package inventory

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/charlesren/ylog"
	"github.com/charlesren/zapix"
)

// Client zabbix API 中清单同步用到的部分
type Client interface {
	HostGet(params zapix.HostGetParams) ([]zapix.HostObject, error)
}

type ChangeType uint8

const (
	DeviceCreate ChangeType = iota + 1
	DeviceUpdate
	DeviceDelete
)

func (t ChangeType) String() string {
	switch t {
	case DeviceCreate:
		return "create"
	case DeviceUpdate:
		return "update"
	case DeviceDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type ChangeEvent struct {
	Type    ChangeType
	Device  Device
	Version int64 // 配置版本号
}

// ZabbixInventory 从带 {$FTD_*} 宏的 zabbix 主机同步设备清单
type ZabbixInventory struct {
	client   Client
	defaults DeviceDefaults
	devices  map[string]Device // 当前全量清单
	version  int64             // 单调递增版本号
	mu       sync.RWMutex
}

func NewZabbixInventory(client Client, defaults DeviceDefaults) *ZabbixInventory {
	return &ZabbixInventory{
		client:   client,
		defaults: defaults,
		devices:  make(map[string]Device),
	}
}

// Sync 拉取主机并返回本次变更
func (zi *ZabbixInventory) Sync() ([]ChangeEvent, error) {
	devices, err := zi.fetchDevices()
	if err != nil {
		return nil, err
	}

	zi.mu.Lock()
	defer zi.mu.Unlock()

	events := zi.detectChanges(devices)
	if len(events) == 0 {
		return nil, nil
	}
	zi.devices = devices
	zi.version++
	for i := range events {
		events[i].Version = zi.version
	}
	ylog.Infof("inventory", "synced %d devices, %d changes, version %d", len(devices), len(events), zi.version)
	return events, nil
}

func (zi *ZabbixInventory) fetchDevices() (map[string]Device, error) {
	hosts, err := zi.client.HostGet(hostQuery())
	if err != nil {
		return nil, fmt.Errorf("fetch hosts failed: %w", err)
	}

	devices := make(map[string]Device)
	for _, host := range hosts {
		fields, ok := fieldsFromMacros(host.Macros)
		if !ok {
			continue
		}
		device, err := fields.build(host.Host, zi.defaults)
		if err != nil {
			ylog.Warnf("inventory", "skip host %s: %v", host.Host, err)
			continue
		}
		devices[device.Name] = device
	}
	return devices, nil
}

// hostQuery 主机查询需要带回宏，否则拿不到 {$FTD_*}
func hostQuery() zapix.HostGetParams {
	return zapix.HostGetParams{
		SelectMacros: zapix.SelectExtendedOutput,
	}
}

// fieldsFromMacros 没有 {$FTD_IP} 的主机不是 FTD
func fieldsFromMacros(macros []zapix.UsermacroObject) (deviceFields, bool) {
	f := deviceFields{source: SourceZabbix}
	var found bool
	for _, m := range macros {
		switch m.Macro {
		case MacroIP:
			f.host = m.Value
			found = true
		case MacroPort:
			f.port = m.Value
		case MacroUsername:
			f.username = m.Value
		case MacroPassword:
			f.password = m.Value
		case MacroProtocol:
			f.protocol = m.Value
		}
	}
	return f, found
}

func (zi *ZabbixInventory) detectChanges(newDevices map[string]Device) []ChangeEvent {
	var events []ChangeEvent

	// 检测删除和更新
	for name, old := range zi.devices {
		if device, exists := newDevices[name]; !exists {
			events = append(events, ChangeEvent{Type: DeviceDelete, Device: old})
		} else if !reflect.DeepEqual(old, device) {
			events = append(events, ChangeEvent{Type: DeviceUpdate, Device: device})
		}
	}
	// 检测新增
	for name, device := range newDevices {
		if _, exists := zi.devices[name]; !exists {
			events = append(events, ChangeEvent{Type: DeviceCreate, Device: device})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Device.Name < events[j].Device.Name })
	return events
}

// Lookup 按 zabbix 主机名查找设备
func (zi *ZabbixInventory) Lookup(name string) (Device, bool) {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	d, ok := zi.devices[name]
	return d, ok
}

// 获取当前清单快照
func (zi *ZabbixInventory) Snapshot() map[string]Device {
	zi.mu.RLock()
	defer zi.mu.RUnlock()

	snapshot := make(map[string]Device, len(zi.devices))
	for k, v := range zi.devices {
		snapshot[k] = v
	}
	return snapshot
}

func (zi *ZabbixInventory) Version() int64 {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return zi.version
}
