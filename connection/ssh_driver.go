package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charlesren/ftd_cliconf/terminal"
	"github.com/charlesren/ylog"
	"golang.org/x/crypto/ssh"
)

// SSHDriver 基于交互式shell的驱动，自己按terminal规则判断输出结束
type SSHDriver struct {
	id         string
	host       string
	mu         sync.Mutex
	client     *ssh.Client
	session    *ssh.Session
	stdin      io.WriteCloser
	chunks     chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	readErr    error
	errMu      sync.Mutex
	timeout    time.Duration
	returnChar string
	metrics    MetricsCollector
}

// newShellDriver 在已有的shell输入输出上构造驱动，并启动读协程
func newShellDriver(stdin io.WriteCloser, stdout io.Reader, timeout time.Duration) *SSHDriver {
	d := &SSHDriver{
		stdin:      stdin,
		chunks:     make(chan []byte, 64),
		done:       make(chan struct{}),
		timeout:    timeout,
		returnChar: "\n",
	}
	go d.readLoop(stdout)
	return d
}

func (d *SSHDriver) readLoop(r io.Reader) {
	defer close(d.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case d.chunks <- chunk:
			case <-d.done:
				// 驱动已关闭，没人再读
				d.setReadErr(ErrNotConnected)
				return
			}
		}
		if err != nil {
			d.setReadErr(err)
			return
		}
	}
}

func (d *SSHDriver) setReadErr(err error) {
	d.errMu.Lock()
	d.readErr = err
	d.errMu.Unlock()
}

func (d *SSHDriver) streamErr() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if d.readErr == nil || errors.Is(d.readErr, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return d.readErr
}

// readUntil 累积原始输出，每收到一块只检查末尾窗口，done 返回 true 时结束
func (d *SSHDriver) readUntil(ctx context.Context, done func(tail []byte) bool) ([]byte, error) {
	var buf []byte
	for {
		select {
		case <-ctx.Done():
			return buf, ctx.Err()
		case chunk, ok := <-d.chunks:
			if !ok {
				return buf, d.streamErr()
			}
			buf = append(buf, chunk...)
			if done(terminal.Tail(buf)) {
				return buf, nil
			}
		}
	}
}

func (d *SSHDriver) ProtocolType() Protocol {
	return ProtocolSSH
}

func (d *SSHDriver) SendCommand(ctx context.Context, cmd Command) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stdin == nil {
		return "", newFailure(cmd.Input, ErrNotConnected)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if !d.GetCapability().SupportsCommandType(cmd.CommandType()) {
		return "", newFailure(cmd.Input, ErrUnsupportedCommandType)
	}

	start := time.Now()
	out, err := d.send(ctx, cmd)
	recordOperation(d.metrics, ProtocolSSH, string(cmd.CommandType()), start, err)
	if err != nil {
		ylog.Warnf("SSHDriver", "[%s] command %q failed: %v", d.id, cmd.Input, err)
		return "", err
	}
	ylog.Debugf("SSHDriver", "[%s] command %q done in %v", d.id, cmd.Input, time.Since(start))
	return out, nil
}

func (d *SSHDriver) send(ctx context.Context, cmd Command) (string, error) {
	if err := d.write(cmd.Input, cmd.Newline); err != nil {
		return "", newFailure(cmd.Input, err)
	}
	if cmd.SendOnly {
		return "", nil
	}

	// buf 是返回给调用方的全部输出；tail 是回答交互提示之后的输出，只对它判断错误
	var buf, tail []byte
	if cmd.Prompt != "" {
		promptRe, err := regexp.Compile(cmd.Prompt)
		if err != nil {
			return "", newFailure(cmd.Input, fmt.Errorf("invalid prompt pattern: %w", err))
		}
		out, err := d.readUntil(ctx, func(b []byte) bool {
			return promptRe.Match(b) || terminal.Settled(b)
		})
		if err != nil {
			return "", newFailure(cmd.Input, err)
		}
		buf = out

		switch {
		case promptRe.Match(terminal.Tail(out)):
			if err := d.write(cmd.Answer, true); err != nil {
				return "", newFailure(cmd.Input, err)
			}
		case cmd.CheckAll:
			return "", &ConnectionFailure{
				Command: cmd.Input,
				Output:  terminal.Sanitize(out, cmd.Input),
				Cause:   fmt.Errorf("expected prompt %q not seen", cmd.Prompt),
			}
		default:
			tail = out
		}
	}

	if tail == nil {
		out, err := d.readUntil(ctx, terminal.Settled)
		if err != nil {
			return "", newFailure(cmd.Input, err)
		}
		buf = append(buf, out...)
		tail = out
	}

	if v := terminal.Inspect(terminal.StripANSI(tail)); v.Failure != nil {
		return "", failureFromOutput(cmd.Input, tail, v.Failure)
	}
	return terminal.Sanitize(buf, cmd.Input), nil
}

func (d *SSHDriver) write(input string, newline bool) error {
	if newline {
		input += d.returnChar
	}
	_, err := io.WriteString(d.stdin, input)
	return err
}

// GetPrompt 发送空行，返回最后一行提示符
func (d *SSHDriver) GetPrompt(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stdin == nil {
		return "", ErrNotConnected
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.write("", true); err != nil {
		return "", err
	}
	out, err := d.readUntil(ctx, terminal.Settled)
	if err != nil {
		return "", err
	}
	return lastLine(terminal.Tail(out)), nil
}

// waitPrompt 登录后等待第一个提示符
func (d *SSHDriver) waitPrompt(ctx context.Context) error {
	out, err := d.readUntil(ctx, terminal.Settled)
	if err != nil {
		return fmt.Errorf("wait for prompt failed: %w", err)
	}
	if v := terminal.Inspect(terminal.StripANSI(out)); v.Failure != nil {
		return failureFromOutput("", out, v.Failure)
	}
	return nil
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	return strings.TrimRight(lines[len(lines)-1], "\r")
}

// Close 关闭连接
func (d *SSHDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closeOnce.Do(func() { close(d.done) })

	var errs []error
	if d.stdin != nil {
		if err := d.stdin.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}
		d.stdin = nil
	}
	if d.session != nil {
		if err := d.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}
		d.session = nil
	}
	if d.client != nil {
		if err := d.client.Close(); err != nil {
			errs = append(errs, err)
		}
		d.client = nil
	}
	return errors.Join(errs...)
}

func (d *SSHDriver) GetCapability() ProtocolCapability {
	return FTDCapability(ProtocolSSH)
}
