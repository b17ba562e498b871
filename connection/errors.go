package connection

import (
	"errors"
	"fmt"

	"github.com/charlesren/ftd_cliconf/terminal"
)

var ErrUnsupportedCommandType = errors.New("unsupported command type")
var ErrNotConnected = errors.New("driver not properly initialized")

// ConnectionFailure 传输层或设备返回的错误
type ConnectionFailure struct {
	Command string
	Output  string         // 设备返回的错误文本
	Class   terminal.Class // 命中的错误规则，传输错误时为空
	Cause   error
}

func (e *ConnectionFailure) Error() string {
	switch {
	case e.Output != "" && e.Cause != nil:
		return fmt.Sprintf("command %q failed: %s: %v", e.Command, e.Output, e.Cause)
	case e.Output != "":
		return fmt.Sprintf("command %q failed: %s", e.Command, e.Output)
	case e.Cause != nil:
		return fmt.Sprintf("command %q failed: %v", e.Command, e.Cause)
	default:
		return fmt.Sprintf("command %q failed", e.Command)
	}
}

func (e *ConnectionFailure) Unwrap() error {
	return e.Cause
}

// ErrText returns the device error text when there is one, otherwise the error string.
func (e *ConnectionFailure) ErrText() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Error()
}

// IsPrivilegeLost reports whether the session fell back to a password prompt.
func (e *ConnectionFailure) IsPrivilegeLost() bool {
	return e.Class == terminal.ClassPrivilegeLost
}

func newFailure(command string, cause error) *ConnectionFailure {
	var cf *ConnectionFailure
	if errors.As(cause, &cf) {
		return cf
	}
	return &ConnectionFailure{Command: command, Cause: cause}
}

// failureFromOutput 根据错误规则构造失败
func failureFromOutput(command string, out []byte, rule *terminal.Rule) *ConnectionFailure {
	return &ConnectionFailure{
		Command: command,
		Output:  terminal.Sanitize(out, command),
		Class:   rule.Class,
	}
}
