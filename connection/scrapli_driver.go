package connection

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/charlesren/ftd_cliconf/terminal"
	"github.com/charlesren/ylog"
	"github.com/scrapli/scrapligo/channel"
	"github.com/scrapli/scrapligo/driver/generic"
)

type ScrapliDriver struct {
	id      string
	host    string
	mu      sync.Mutex       // 保证同一会话串行
	driver  *generic.Driver  // 主驱动
	channel *channel.Channel // 独立缓存Channel
	timeout time.Duration    // 单条命令超时
	metrics MetricsCollector

	inflight chan struct{} // 超时后仍在读 channel 的 GetPrompt，关闭表示已结束
}

func (d *ScrapliDriver) ProtocolType() Protocol {
	return ProtocolScrapli
}

// SendCommand 写入命令并读取到提示符（或特权丢失提示）为止
func (d *ScrapliDriver) SendCommand(ctx context.Context, cmd Command) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.waitInflight(ctx); err != nil {
		return "", newFailure(cmd.Input, err)
	}

	if d.driver == nil || d.channel == nil {
		ylog.Errorf("ScrapliDriver", "critical field not initialized: driver=%v, channel=%v", d.driver, d.channel)
		return "", newFailure(cmd.Input, ErrNotConnected)
	}

	if !d.GetCapability().SupportsCommandType(cmd.CommandType()) {
		return "", newFailure(cmd.Input, ErrUnsupportedCommandType)
	}

	start := time.Now()
	out, err := d.send(ctx, cmd)
	recordOperation(d.metrics, ProtocolScrapli, string(cmd.CommandType()), start, err)
	if err != nil {
		ylog.Warnf("ScrapliDriver", "[%s] command %q failed: %v", d.id, cmd.Input, err)
		return "", err
	}
	ylog.Debugf("ScrapliDriver", "[%s] command %q done in %v, %d bytes", d.id, cmd.Input, time.Since(start), len(out))
	return out, nil
}

func (d *ScrapliDriver) send(ctx context.Context, cmd Command) (string, error) {
	if err := d.write(cmd.Input, cmd.Newline); err != nil {
		return "", newFailure(cmd.Input, err)
	}
	if cmd.SendOnly {
		return "", nil
	}

	patterns := []*regexp.Regexp{terminal.PromptPattern(), terminal.PrivilegeLostPattern()}
	var buf []byte  // 完整输出
	var tail []byte // 应答之后的输出，只对这部分做错误判定

	if cmd.Prompt != "" {
		promptRe, err := regexp.Compile(cmd.Prompt)
		if err != nil {
			return "", newFailure(cmd.Input, fmt.Errorf("invalid prompt pattern: %w", err))
		}
		out, err := d.channel.ReadUntilAnyPrompt(ctx, append([]*regexp.Regexp{promptRe}, patterns...))
		if err != nil {
			return "", newFailure(cmd.Input, err)
		}
		buf = append(buf, out...)

		switch {
		case promptRe.Match(out):
			if err := d.write(cmd.Answer, true); err != nil {
				return "", newFailure(cmd.Input, err)
			}
		case cmd.CheckAll:
			return "", &ConnectionFailure{
				Command: cmd.Input,
				Output:  terminal.Sanitize(buf, cmd.Input),
				Cause:   fmt.Errorf("expected prompt %q not seen", cmd.Prompt),
			}
		default:
			tail = out
		}
	}

	if !terminal.Inspect(tail).Complete {
		out, err := d.channel.ReadUntilAnyPrompt(ctx, patterns)
		if err != nil {
			return "", newFailure(cmd.Input, err)
		}
		buf = append(buf, out...)
		tail = append(tail, out...)
	}

	if v := terminal.Inspect(tail); v.Failure != nil {
		return "", failureFromOutput(cmd.Input, tail, v.Failure)
	}
	return terminal.Sanitize(buf, cmd.Input), nil
}

func (d *ScrapliDriver) write(input string, newline bool) error {
	if newline {
		return d.channel.WriteAndReturn([]byte(input), false)
	}
	return d.channel.Write([]byte(input), false)
}

// GetPrompt 获取设备提示符
func (d *ScrapliDriver) GetPrompt(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.waitInflight(ctx); err != nil {
		return "", err
	}
	if d.driver == nil {
		return "", ErrNotConnected
	}

	// scrapligo GetPrompt 不接受 context，用 goroutine 包装以便超时中断
	resultChan := make(chan struct {
		prompt string
		err    error
	}, 1)
	finished := make(chan struct{})
	driver := d.driver
	go func() {
		defer close(finished)
		prompt, err := driver.GetPrompt()
		resultChan <- struct {
			prompt string
			err    error
		}{prompt, err}
	}()

	select {
	case <-ctx.Done():
		ylog.Warnf("ScrapliDriver", "[%s] GetPrompt timed out or cancelled: %v", d.id, ctx.Err())
		d.inflight = finished
		return "", ctx.Err()
	case result := <-resultChan:
		return result.prompt, result.err
	}
}

// waitInflight 等上一次超时的 GetPrompt 读完，之后才能再用 channel
func (d *ScrapliDriver) waitInflight(ctx context.Context) error {
	if d.inflight == nil {
		return nil
	}
	select {
	case <-d.inflight:
		d.inflight = nil
		return nil
	case <-ctx.Done():
		return fmt.Errorf("previous prompt read still running: %w", ctx.Err())
	}
}

// Close 关闭连接
func (d *ScrapliDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.driver == nil {
		return nil
	}
	ylog.Debugf("ScrapliDriver", "[%s] closing connection to %s", d.id, d.host)
	err := d.driver.Close()
	d.driver = nil
	d.channel = nil
	return err
}

func (d *ScrapliDriver) GetCapability() ProtocolCapability {
	return FTDCapability(ProtocolScrapli)
}
