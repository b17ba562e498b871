package cliconf

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCommandSpecJSON(t *testing.T) {
	var specs []CommandSpec
	data := `["show version", {"command": "configure password", "prompt": "Enter new password:", "answer": "x", "newline": false}]`
	require.NoError(t, json.Unmarshal([]byte(data), &specs))
	require.Len(t, specs, 2)

	assert.Equal(t, CommandSpec{Command: "show version"}, specs[0])
	assert.Equal(t, "configure password", specs[1].Command)
	require.NotNil(t, specs[1].Newline)
	assert.False(t, *specs[1].Newline)

	var bad CommandSpec
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestCommandSpecYAML(t *testing.T) {
	doc := `
- interface GigabitEthernet0/1
- command: show clock
  sendonly: true
  check_all: true
`
	var specs []CommandSpec
	require.NoError(t, yaml.Unmarshal([]byte(doc), &specs))
	require.Len(t, specs, 2)
	assert.Equal(t, "interface GigabitEthernet0/1", specs[0].Command)
	assert.True(t, specs[1].SendOnly)
	assert.True(t, specs[1].CheckAll)

	var bad CommandSpec
	assert.Error(t, yaml.Unmarshal([]byte(`[a, b]`), &bad))
}

func TestCommandSpecToCommand(t *testing.T) {
	assert.Equal(t, connection.NewCommand("show run"), CommandSpec{Command: "show run"}.toCommand())

	no := false
	cmd := CommandSpec{Command: "x", Newline: &no, SendOnly: true}.toCommand()
	assert.False(t, cmd.Newline)
	assert.True(t, cmd.SendOnly)
}

func TestEditResponseEncoding(t *testing.T) {
	b, err := json.Marshal(newEditResponse())
	require.NoError(t, err)
	assert.JSONEq(t, `{"request":[],"response":[]}`, string(b))
}

func TestCheckEditConfigCapability(t *testing.T) {
	ops := DeviceOperations{SupportsDefaults: true}

	assert.NoError(t, CheckEditConfigCapability(ops, Lines("a"), true, false, ""))
	assert.True(t, IsErrorCode(CheckEditConfigCapability(ops, nil, true, false, ""), ErrCodeMissingCandidate))
	assert.True(t, IsErrorCode(CheckEditConfigCapability(ops, Lines("a"), true, true, ""), ErrCodeUnsupportedReplace))
	assert.True(t, IsErrorCode(CheckEditConfigCapability(ops, Lines("a"), true, false, "c"), ErrCodeUnsupportedComment))

	ops.SupportsReplace = true
	ops.SupportsCommitComment = true
	assert.NoError(t, CheckEditConfigCapability(ops, nil, true, true, "c"))
}

func TestCliconfError(t *testing.T) {
	cause := errors.New("boom")
	err := &CliconfError{Code: ErrCodeCapabilitiesEncoding, Message: "encode failed", Cause: cause}
	assert.Equal(t, "[CAPABILITIES_ENCODING] encode failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsInputError(err))

	src := errUnsupportedSource("candidate")
	assert.Equal(t, "candidate", src.Details["source"])
	assert.True(t, IsInputError(src))

	wrapped := errors.Join(errors.New("ctx"), src)
	assert.True(t, IsErrorCode(wrapped, ErrCodeUnsupportedSource))
	assert.False(t, IsErrorCode(cause, ErrCodeUnsupportedSource))
	assert.False(t, IsInputError(cause))
}

func TestBaseRPC(t *testing.T) {
	rpc := BaseRPC()
	rpc[0] = "changed"
	assert.Equal(t, "get_config", BaseRPC()[0])
	assert.Len(t, BaseRPC(), 6)
}
