package connection

import "github.com/charlesren/ftd_cliconf/terminal"

type ProtocolCapability struct {
	// 基础能力
	Protocol        Protocol   // 协议类型标识
	PlatformSupport []Platform // 支持的平台列表

	// 命令能力
	CommandTypesSupport []CommandType

	// 配置能力
	ConfigModes []ConfigModeCapability
}

func (pc ProtocolCapability) SupportsCommandType(cmdType CommandType) bool {
	for _, ct := range pc.CommandTypesSupport {
		if ct == cmdType {
			return true
		}
	}
	return false
}

func (pc ProtocolCapability) SupportsPlatform(p Platform) bool {
	for _, sp := range pc.PlatformSupport {
		if sp == p {
			return true
		}
	}
	return false
}

func (pc ProtocolCapability) GetConfigMode(mode ConfigMode) (ConfigModeCapability, bool) {
	for _, m := range pc.ConfigModes {
		if m.Mode == mode {
			return m, true
		}
	}
	return ConfigModeCapability{}, false
}

// InConfigMode 按能力表判断提示符是否处于指定模式，未声明的模式一律为否
func (pc ProtocolCapability) InConfigMode(mode ConfigMode, prompt string) bool {
	m, ok := pc.GetConfigMode(mode)
	if !ok || m.MatchPrompt == nil {
		return false
	}
	return m.MatchPrompt(prompt)
}

// FTDCapability returns the capability table for a protocol talking to FTD.
func FTDCapability(protocol Protocol) ProtocolCapability {
	return ProtocolCapability{
		Protocol:        protocol,
		PlatformSupport: []Platform{PlatformCiscoFTD},
		CommandTypesSupport: []CommandType{
			CommandTypeCommands,
			CommandTypeInteractiveEvent,
			CommandTypeSendOnly,
		},
		ConfigModes: []ConfigModeCapability{
			{Mode: ConfigModePrivileged, MatchPrompt: terminal.IsPrivilegedPrompt},
		},
	}
}
