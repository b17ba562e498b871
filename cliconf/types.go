package cliconf

import (
	"encoding/json"
	"fmt"

	"github.com/charlesren/ftd_cliconf/connection"
	"gopkg.in/yaml.v3"
)

// CommandSpec 调用方提交的一条命令：裸字符串或结构化对象
type CommandSpec struct {
	Command  string `json:"command" yaml:"command"`
	Prompt   string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Answer   string `json:"answer,omitempty" yaml:"answer,omitempty"`
	SendOnly bool   `json:"sendonly,omitempty" yaml:"sendonly,omitempty"`
	Newline  *bool  `json:"newline,omitempty" yaml:"newline,omitempty"` // 缺省为 true
	CheckAll bool   `json:"check_all,omitempty" yaml:"check_all,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
}

// Lines normalizes bare command strings to CommandSpec values.
func Lines(commands ...string) []CommandSpec {
	specs := make([]CommandSpec, 0, len(commands))
	for _, c := range commands {
		specs = append(specs, CommandSpec{Command: c})
	}
	return specs
}

// toCommand 转成传输层命令
func (s CommandSpec) toCommand() connection.Command {
	cmd := connection.NewCommand(s.Command)
	cmd.Prompt = s.Prompt
	cmd.Answer = s.Answer
	cmd.SendOnly = s.SendOnly
	cmd.CheckAll = s.CheckAll
	if s.Newline != nil {
		cmd.Newline = *s.Newline
	}
	return cmd
}

type commandSpecFields CommandSpec

func (s *CommandSpec) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*s = CommandSpec{Command: bare}
		return nil
	}
	var fields commandSpecFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("command must be a string or an object: %w", err)
	}
	*s = CommandSpec(fields)
	return nil
}

func (s *CommandSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = CommandSpec{Command: value.Value}
		return nil
	case yaml.MappingNode:
		var fields commandSpecFields
		if err := value.Decode(&fields); err != nil {
			return err
		}
		*s = CommandSpec(fields)
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a mapping", value.Line)
	}
}

// EditResponse 批量下发的请求与响应，两者等长
type EditResponse struct {
	Request  []string `json:"request"`
	Response []string `json:"response"`
}

func newEditResponse() *EditResponse {
	return &EditResponse{Request: []string{}, Response: []string{}}
}

func (r *EditResponse) add(request, response string) {
	r.Request = append(r.Request, request)
	r.Response = append(r.Response, response)
}

// DeviceOperations 该设备支持的通用配置管理能力
type DeviceOperations struct {
	SupportsDiffReplace        bool `json:"supports_diff_replace"`
	SupportsCommit             bool `json:"supports_commit"`
	SupportsRollback           bool `json:"supports_rollback"`
	SupportsDefaults           bool `json:"supports_defaults"`
	SupportsOnboxDiff          bool `json:"supports_onbox_diff"`
	SupportsCommitComment      bool `json:"supports_commit_comment"`
	SupportsMultilineDelimiter bool `json:"supports_multiline_delimiter"`
	SupportsDiffMatch          bool `json:"supports_diff_match"`
	SupportsDiffIgnoreLines    bool `json:"supports_diff_ignore_lines"`
	SupportsGenerateDiff       bool `json:"supports_generate_diff"`
	SupportsReplace            bool `json:"supports_replace"`
}

// OptionValues 合法的输出格式与diff模式
type OptionValues struct {
	Format      []string `json:"format"`
	DiffMatch   []string `json:"diff_match"`
	DiffReplace []string `json:"diff_replace"`
	Output      []string `json:"output"`
}

type DeviceInfo struct {
	NetworkOS        string `json:"network_os"`
	NetworkOSVersion string `json:"network_os_version"`
}

// Capabilities is the document returned by GetCapabilities, option values flattened in.
type Capabilities struct {
	RPC              []string         `json:"rpc"`
	NetworkAPI       string           `json:"network_api"`
	DeviceInfo       DeviceInfo       `json:"device_info"`
	DeviceOperations DeviceOperations `json:"device_operations"`
	Format           []string         `json:"format"`
	DiffMatch        []string         `json:"diff_match"`
	DiffReplace      []string         `json:"diff_replace"`
	Output           []string         `json:"output"`
}
