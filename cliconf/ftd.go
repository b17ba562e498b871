package cliconf

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ylog"
)

const (
	NetworkOS  = "ftd"
	NetworkAPI = "cliconf"

	// VersionParseError 无法解析 show version 时的占位版本
	VersionParseError = "Error: cannot parse Model line of ``show version`` command."

	macroFlushDelay = 100 * time.Millisecond
)

var versionPattern = regexp.MustCompile(
	`Model                     : Cisco Firepower (\d+) Threat Defense \((\d+)\) Version ([\d.]+) \(Build (\d+)\)`)

// Cliconf FTD 命令适配器，一个实例对应一个会话
type Cliconf struct {
	conn            Connection
	responseLogging atomic.Bool
}

func New(conn Connection) *Cliconf {
	return &Cliconf{conn: conn}
}

func (c *Cliconf) send(ctx context.Context, cmd connection.Command) (string, error) {
	out, err := c.conn.SendCommand(ctx, cmd)
	if err != nil {
		return "", err
	}
	if c.responseLogging.Load() {
		ylog.Infof("cliconf", "command %q response: %s", cmd.Input, out)
	}
	return out, nil
}

// GetConfig 获取 running 或 startup 配置
func (c *Cliconf) GetConfig(ctx context.Context, source string, flags []string, format string) (string, error) {
	if err := enableMode(ctx, c.conn, "get_config"); err != nil {
		return "", err
	}

	var cmd string
	switch source {
	case "running":
		cmd = "show running-config "
	case "startup":
		cmd = "show startup-config "
	default:
		return "", errUnsupportedSource(source)
	}
	if format != "" {
		return "", errUnsupportedFormat(format, "get_config")
	}

	cmd = strings.TrimSpace(cmd + strings.Join(flags, " "))
	return c.send(ctx, connection.NewCommand(cmd))
}

// EditConfig 逐行下发配置，跳过 end 和注释行
func (c *Cliconf) EditConfig(ctx context.Context, candidate []CommandSpec, commit, replace bool, comment string) (*EditResponse, error) {
	if err := enableMode(ctx, c.conn, "edit_config"); err != nil {
		return nil, err
	}
	if !commit {
		return nil, errCheckModeUnsupported
	}
	if err := CheckEditConfigCapability(c.DeviceOperations(), candidate, commit, replace, comment); err != nil {
		return nil, err
	}

	resp := newEditResponse()
	for _, line := range candidate {
		if line.Command == "end" || strings.HasPrefix(line.Command, "!") {
			continue
		}
		out, err := c.send(ctx, line.toCommand())
		if err != nil {
			return nil, err
		}
		resp.add(line.Command, out)
	}
	ylog.Debugf("cliconf", "edit_config sent %d of %d lines", len(resp.Request), len(candidate))
	return resp, nil
}

// EditMacro 以只发送方式批量下发，每轮重发累积的全部行，最后回车收尾
func (c *Cliconf) EditMacro(ctx context.Context, candidate []string, commit, replace bool, comment string) (*EditResponse, error) {
	if !commit {
		return nil, errCheckModeUnsupported
	}
	if err := CheckEditConfigCapability(c.DeviceOperations(), Lines(candidate...), commit, replace, comment); err != nil {
		return nil, err
	}

	resp := newEditResponse()
	var commands strings.Builder
	for _, line := range candidate {
		if line != "None" {
			commands.WriteString(" " + line + "\n")
		}
		cmd := connection.NewCommand(commands.String())
		cmd.SendOnly = true
		out, err := c.send(ctx, cmd)
		if err != nil {
			return nil, err
		}
		resp.add(cmd.Input, out)
	}

	time.Sleep(macroFlushDelay)
	out, err := c.send(ctx, connection.NewCommand("\n"))
	if err != nil {
		return nil, err
	}
	resp.add("\n", out)
	return resp, nil
}

// Get 透传一条命令
func (c *Cliconf) Get(ctx context.Context, spec CommandSpec) (string, error) {
	if spec.Command == "" {
		return "", errMissingCommand
	}
	if spec.Output != "" {
		return "", errUnsupportedOutput(spec.Output, "get")
	}
	return c.send(ctx, spec.toCommand())
}

// GetDeviceInfo 解析 show version，解析失败时版本为占位文本
func (c *Cliconf) GetDeviceInfo(ctx context.Context) (DeviceInfo, error) {
	info := DeviceInfo{NetworkOS: NetworkOS}
	reply, err := c.Get(ctx, CommandSpec{Command: "show version"})
	if err != nil {
		return info, err
	}
	info.NetworkOSVersion = parseVersion(reply)
	return info, nil
}

func parseVersion(reply string) string {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(reply))
	if m == nil {
		return VersionParseError
	}
	return m[3]
}

func (c *Cliconf) DeviceOperations() DeviceOperations {
	return DeviceOperations{SupportsDefaults: true}
}

func (c *Cliconf) OptionValues() OptionValues {
	return OptionValues{
		Format:      []string{"text"},
		DiffMatch:   []string{"line", "none"},
		DiffReplace: []string{},
		Output:      []string{},
	}
}

// GetCapabilities returns the capabilities document as JSON text.
func (c *Cliconf) GetCapabilities(ctx context.Context) (string, error) {
	info, err := c.GetDeviceInfo(ctx)
	if err != nil {
		return "", err
	}
	opts := c.OptionValues()
	caps := Capabilities{
		RPC:              append(BaseRPC(), "run_commands"),
		NetworkAPI:       NetworkAPI,
		DeviceInfo:       info,
		DeviceOperations: c.DeviceOperations(),
		Format:           opts.Format,
		DiffMatch:        opts.DiffMatch,
		DiffReplace:      opts.DiffReplace,
		Output:           opts.Output,
	}
	b, err := json.Marshal(caps)
	if err != nil {
		return "", &CliconfError{Code: ErrCodeCapabilitiesEncoding, Message: "encode capabilities failed", Cause: err}
	}
	return string(b), nil
}

// RunCommands 顺序执行命令；checkRC 为 false 时失败文本作为该条结果
func (c *Cliconf) RunCommands(ctx context.Context, commands []CommandSpec, checkRC bool) ([]string, error) {
	if commands == nil {
		return nil, errMissingCommands
	}
	for _, cmd := range commands {
		if cmd.Output != "" {
			return nil, errUnsupportedOutput(cmd.Output, "run_commands")
		}
	}

	responses := make([]string, 0, len(commands))
	for _, cmd := range commands {
		out, err := c.send(ctx, cmd.toCommand())
		if err != nil {
			var cf *connection.ConnectionFailure
			if checkRC || !errors.As(err, &cf) {
				return nil, err
			}
			ylog.Infof("cliconf", "command %q failed, continuing: %v", cmd.Command, err)
			out = cf.ErrText()
		}
		responses = append(responses, out)
	}
	return responses, nil
}

// GetDefaultsFlag 判断获取含默认值配置时应使用的参数
func (c *Cliconf) GetDefaultsFlag(ctx context.Context) (string, error) {
	out, err := c.Get(ctx, CommandSpec{Command: "show config running ?"})
	if err != nil {
		return "", err
	}
	return defaultsFlag(out), nil
}

func defaultsFlag(help string) string {
	for _, line := range strings.Split(help, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == "all" {
			return "all"
		}
	}
	return "full"
}

func (c *Cliconf) EnableResponseLogging() {
	c.responseLogging.Store(true)
}

func (c *Cliconf) DisableResponseLogging() {
	c.responseLogging.Store(false)
}
