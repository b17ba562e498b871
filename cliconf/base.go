package cliconf

import (
	"context"
	"fmt"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ylog"
)

// Connection 适配器依赖的会话能力，connection.ProtocolDriver 满足该接口
type Connection interface {
	SendCommand(ctx context.Context, cmd connection.Command) (string, error)
	GetPrompt(ctx context.Context) (string, error)
}

// BaseRPC returns the operation names every cliconf adapter exposes.
func BaseRPC() []string {
	return []string{
		"get_config",
		"edit_config",
		"get_capabilities",
		"get",
		"enable_response_logging",
		"disable_response_logging",
	}
}

// CheckEditConfigCapability 按设备能力表校验一次配置下发请求
func CheckEditConfigCapability(ops DeviceOperations, candidate []CommandSpec, commit, replace bool, comment string) error {
	if len(candidate) == 0 && !replace {
		return newError(ErrCodeMissingCandidate, "must provide a candidate or replace to load configuration")
	}
	if replace && !ops.SupportsReplace {
		return newError(ErrCodeUnsupportedReplace, "configuration replace is not supported")
	}
	if comment != "" && !ops.SupportsCommitComment {
		return newError(ErrCodeUnsupportedComment, "commit comment is not supported")
	}
	return nil
}

// capabilityOf 会话声明了能力表就用它，否则按 SSH 驱动的能力表
func capabilityOf(conn Connection) connection.ProtocolCapability {
	if c, ok := conn.(interface {
		GetCapability() connection.ProtocolCapability
	}); ok {
		return c.GetCapability()
	}
	return connection.FTDCapability(connection.ProtocolSSH)
}

// enableMode 确认会话处于特权模式
func enableMode(ctx context.Context, conn Connection, operation string) error {
	prompt, err := conn.GetPrompt(ctx)
	if err != nil {
		return fmt.Errorf("%s: get prompt failed: %w", operation, err)
	}
	if !capabilityOf(conn).InConfigMode(connection.ConfigModePrivileged, prompt) {
		ylog.Warnf("cliconf", "%s refused, session prompt %q is not privileged", operation, prompt)
		return newError(ErrCodePrivilegeRequired,
			fmt.Sprintf("%s requires privileged mode", operation)).withDetail("prompt", prompt)
	}
	return nil
}
