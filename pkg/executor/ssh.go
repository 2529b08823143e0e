package executor

import (
	"context"
	"time"

	"example.com/HassBackup/pkg/ssh"
)

// SSHExecutor 通过已建立的 SSH 连接执行命令
type SSHExecutor struct {
	client *ssh.Client
	// 需要先 source profile 才能拿到 ha 的授权令牌时设置
	sourceProfile string
}

func NewSSHExecutor(client *ssh.Client, sourceProfile string) *SSHExecutor {
	return &SSHExecutor{client: client, sourceProfile: sourceProfile}
}

func (e *SSHExecutor) Run(ctx context.Context, args []string) (Result, error) {
	cmd := QuoteAll(args)
	if e.sourceProfile != "" {
		cmd = "source " + Quote(e.sourceProfile) + " && " + cmd
	}

	start := time.Now()
	res, err := e.client.Run(ctx, cmd)
	elapsed := time.Since(start)

	if err != nil {
		return Result{Stdout: res.Stdout, Stderr: res.Stderr, Duration: elapsed}, err
	}
	return Result{
		ExitCode: res.ExitStatus,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: elapsed,
	}, nil
}
