package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ftd_cliconf/internal/config"
	"github.com/charlesren/ftd_cliconf/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"get-config", "edit", "macro", "get", "run", "device-info", "capabilities", "defaults-flag", "report", "inventory"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("device"))
	assert.NotNil(t, root.PersistentFlags().Lookup("metrics"))
}

func TestDumpMetrics(t *testing.T) {
	c := connection.NewDefaultMetricsCollector()
	c.IncrementConnectionsCreated(connection.ProtocolSSH)
	c.IncrementOperationCount(connection.ProtocolSSH, "commands")
	c.IncrementOperationErrors(connection.ProtocolSSH, "commands")

	var buf bytes.Buffer
	dumpMetrics(&buf, c)

	var got struct {
		ConnectionMetrics map[string]struct {
			Created int64 `json:"created"`
		} `json:"connection_metrics"`
		OperationMetrics map[string]map[string]struct {
			Count  int64 `json:"count"`
			Errors int64 `json:"errors"`
		} `json:"operation_metrics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, int64(1), got.ConnectionMetrics["ssh"].Created)
	assert.Equal(t, int64(1), got.OperationMetrics["ssh"]["commands"].Count)
	assert.Equal(t, int64(1), got.OperationMetrics["ssh"]["commands"].Errors)
}

func TestReadCandidate(t *testing.T) {
	doc := "- interface GigabitEthernet0/1\n- command: configure password\n  prompt: 'Enter new password:'\n  answer: secret\n"

	specs, err := readCandidate(strings.NewReader(doc), "-")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "interface GigabitEthernet0/1", specs[0].Command)
	assert.Equal(t, "secret", specs[1].Answer)

	path := filepath.Join(t.TempDir(), "candidate.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	specs, err = readCandidate(nil, path)
	require.NoError(t, err)
	assert.Len(t, specs, 2)

	_, err = readCandidate(strings.NewReader("command: x"), "-")
	assert.Error(t, err)
}

func TestResolveDeviceFromConfig(t *testing.T) {
	appConfig = config.DefaultConfig()
	appConfig.Device.Host, appConfig.Device.Username, appConfig.Device.Password = "10.0.0.1", "admin", "secret"
	deviceName = ""
	defer func() { appConfig = nil }()

	cfg, err := resolveDevice()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:22", cfg.Address())

	deviceName = "fw99"
	defer func() { deviceName = "" }()
	_, err = resolveDevice()
	assert.ErrorContains(t, err, "fw99 not found")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	d := inventory.Device{Name: "fw01", Config: connection.EnhancedConnectionConfig{
		Host: "10.0.0.1", Port: 22, Protocol: connection.ProtocolSSH,
		Metadata: map[string]interface{}{inventory.MetadataSource: inventory.SourceWorkbook},
	}}
	require.NoError(t, printJSON(&buf, []inventoryRow{newInventoryRow(d)}))
	assert.JSONEq(t, `[{"source":"workbook","name":"fw01","address":"10.0.0.1:22","protocol":"ssh"}]`, buf.String())
}
