package connection

// 配置模式类型（设备配置层级）
type ConfigMode string

// FTD 只有 CLISH 特权上下文，expert shell 不由本适配器管理
const ConfigModePrivileged ConfigMode = "privileged"

// ConfigModeCapability 一种配置模式及其提示符判定
type ConfigModeCapability struct {
	Mode        ConfigMode
	MatchPrompt func(prompt string) bool // 提示符是否表明会话处于该模式
}
