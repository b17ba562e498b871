package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesren/ylog"
	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
)

type SSHFactory struct {
	Metrics MetricsCollector
}

func (f *SSHFactory) Create(config EnhancedConnectionConfig) (ProtocolDriver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	metrics := f.Metrics
	if metrics == nil {
		metrics = GetGlobalMetricsCollector()
	}

	d, err := dialShell(config)
	if err != nil {
		metrics.IncrementConnectionsFailed(ProtocolSSH)
		return nil, err
	}
	d.metrics = metrics
	metrics.IncrementConnectionsCreated(ProtocolSSH)
	ylog.Infof("ssh", "[%s] connected to %s", d.id, config.Address())
	return d, nil
}

func dialShell(config EnhancedConnectionConfig) (*SSHDriver, error) {
	password := config.Password
	client, err := ssh.Dial("tcp", config.Address(), &ssh.ClientConfig{
		User: config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// FTD 部分版本只接受 keyboard-interactive
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         config.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH连接失败: %w", err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	sc := config.SSHConfig
	if sc == nil {
		sc = DefaultSSHConfig()
	}
	if sc.RequestPty {
		modes := ssh.TerminalModes{
			ssh.ECHO:          1,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := session.RequestPty(sc.TerminalType, sc.WindowHeight, sc.WindowWidth, modes); err != nil {
			session.Close()
			client.Close()
			return nil, fmt.Errorf("request pty failed: %w", err)
		}
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe failed: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("stdout pipe failed: %w", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("start shell failed: %w", err)
	}

	d := newShellDriver(stdin, stdout, config.TimeoutOps)
	d.id = uuid.NewString()
	d.host = config.Host
	d.client = client
	d.session = session

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := d.waitPrompt(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (f *SSHFactory) HealthCheck(driver ProtocolDriver) bool {
	return healthCheck(driver, 5*time.Second)
}
