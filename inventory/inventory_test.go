package inventory

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/zapix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) HostGet(params zapix.HostGetParams) ([]zapix.HostObject, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zapix.HostObject), args.Error(1)
}

func ftdHost(name, ip, password string) zapix.HostObject {
	return zapix.HostObject{
		Host: name,
		Macros: []zapix.UsermacroObject{
			{Macro: MacroIP, Value: ip},
			{Macro: MacroUsername, Value: "admin"},
			{Macro: MacroPassword, Value: password},
			{Macro: MacroProtocol, Value: "SSH"},
		},
	}
}

// withMacros 只接受带回主机宏的查询
func withMacros() interface{} {
	return mock.MatchedBy(func(params zapix.HostGetParams) bool {
		return params.SelectMacros == zapix.SelectExtendedOutput
	})
}

func TestZabbixInventorySync(t *testing.T) {
	client := &MockClient{}
	client.On("HostGet", withMacros()).Return([]zapix.HostObject{
		ftdHost("fw01", "10.0.0.1", "secret"),
		ftdHost("fw02", "10.0.0.2", "secret"),
		{Host: "router01", Macros: []zapix.UsermacroObject{{Macro: "{$LINE_ID}", Value: "line001"}}},
		{Host: "broken", Macros: []zapix.UsermacroObject{{Macro: MacroIP, Value: "10.0.0.9"}}},
	}, nil).Once()

	inv := NewZabbixInventory(client, DeviceDefaults{Port: 2222})
	events, err := inv.Sync()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, DeviceCreate, events[0].Type)
	assert.Equal(t, "fw01", events[0].Device.Name)
	assert.Equal(t, int64(1), events[0].Version)
	assert.Equal(t, int64(1), inv.Version())

	d, ok := inv.Lookup("fw01")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", d.Config.Host)
	assert.Equal(t, 2222, d.Config.Port)
	assert.Equal(t, connection.ProtocolSSH, d.Config.Protocol)
	assert.Equal(t, "fw01", d.Config.Labels["name"])
	assert.Equal(t, SourceZabbix, d.Source())

	_, ok = inv.Lookup("router01")
	assert.False(t, ok)
	_, ok = inv.Lookup("broken")
	assert.False(t, ok)

	// 第二次：fw02 删除，fw01 密码变更
	client.On("HostGet", withMacros()).Return([]zapix.HostObject{
		ftdHost("fw01", "10.0.0.1", "changed"),
	}, nil).Once()
	events, err = inv.Sync()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, DeviceUpdate, events[0].Type)
	assert.Equal(t, "changed", events[0].Device.Config.Password)
	assert.Equal(t, DeviceDelete, events[1].Type)
	assert.Equal(t, "fw02", events[1].Device.Name)
	assert.Len(t, inv.Snapshot(), 1)

	// 无变化时版本不变
	client.On("HostGet", withMacros()).Return([]zapix.HostObject{
		ftdHost("fw01", "10.0.0.1", "changed"),
	}, nil).Once()
	events, err = inv.Sync()
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, int64(2), inv.Version())
}

func TestZabbixInventorySyncError(t *testing.T) {
	client := &MockClient{}
	client.On("HostGet", mock.Anything).Return(nil, errors.New("api unavailable"))

	inv := NewZabbixInventory(client, DeviceDefaults{})
	_, err := inv.Sync()
	assert.ErrorContains(t, err, "api unavailable")
	assert.Equal(t, int64(0), inv.Version())
}

func TestChangeTypeString(t *testing.T) {
	assert.Equal(t, "create", DeviceCreate.String())
	assert.Equal(t, "update", DeviceUpdate.String())
	assert.Equal(t, "delete", DeviceDelete.String())
	assert.Equal(t, "unknown", ChangeType(0).String())
}

func TestDevicesFromRows(t *testing.T) {
	rows := [][]string{
		{"名称", "地址", "端口", "用户名", "密码", "协议"},
		{"fw01", "10.0.0.1", "", "admin", "secret"},
		{},
		{"fw02", "10.0.0.2", "8022", "admin", "secret", "scrapli"},
	}
	devices, err := devicesFromRows(rows, DeviceDefaults{Protocol: connection.ProtocolSSH, ConnectTimeout: time.Second, TimeoutOps: 2 * time.Second})
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, 22, devices[0].Config.Port)
	assert.Equal(t, connection.ProtocolSSH, devices[0].Config.Protocol)
	assert.Equal(t, 2*time.Second, devices[0].Config.TimeoutOps)
	assert.Equal(t, SourceWorkbook, devices[0].Source())
	assert.Equal(t, 8022, devices[1].Config.Port)
	assert.Equal(t, connection.ProtocolScrapli, devices[1].Config.Protocol)
}

func TestDevicesFromRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"bad port", [][]string{{"fw01", "10.0.0.1", "abc", "admin", "secret"}}, "invalid port"},
		{"missing password", [][]string{{"fw01", "10.0.0.1", "", "admin"}}, "password is required"},
		{"bad protocol", [][]string{{"fw01", "10.0.0.1", "", "admin", "x", "telnet"}}, "unsupported protocol"},
		{"duplicate", [][]string{{"fw01", "10.0.0.1", "", "a", "b"}, {"fw01", "10.0.0.2", "", "a", "b"}}, "already defined in row 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := devicesFromRows(tt.rows, DeviceDefaults{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "host", "port", "username", "password", "protocol"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"fw01", "10.0.0.1", "", "admin", "secret", "ssh"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	devices, err := LoadWorkbook(path, "", DeviceDefaults{})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "fw01", devices[0].Name)
	assert.Equal(t, connection.ProtocolSSH, devices[0].Config.Protocol)

	_, err = LoadWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"), "", DeviceDefaults{})
	assert.Error(t, err)
}
