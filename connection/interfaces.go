package connection

import (
	"context"
)

// Protocol driver interfaces and types
type ProtocolDriver interface {
	ProtocolType() Protocol
	Close() error
	// SendCommand 发送一条命令并阻塞到提示符出现，SendOnly 时不等待回显
	SendCommand(ctx context.Context, cmd Command) (string, error)
	GetPrompt(ctx context.Context) (string, error)
	GetCapability() ProtocolCapability
}

// Command 单条CLI指令
type Command struct {
	Input    string // 命令文本
	Prompt   string // 交互子提示符（如密码输入），正则
	Answer   string // 子提示符出现后发送的应答
	SendOnly bool   // 只发送，不等待回复
	Newline  bool   // 是否追加回车
	CheckAll bool   // 交互时要求所有子提示符都出现
}

// NewCommand returns a command that is sent with a trailing newline.
func NewCommand(input string) Command {
	return Command{Input: input, Newline: true}
}

// CommandType classifies how a driver will execute cmd.
func (c Command) CommandType() CommandType {
	switch {
	case c.SendOnly:
		return CommandTypeSendOnly
	case c.Prompt != "":
		return CommandTypeInteractiveEvent
	default:
		return CommandTypeCommands
	}
}
