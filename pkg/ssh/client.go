package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// Client 包装一条到 Home Assistant 主机的 SSH 连接
type Client struct {
	sshClient *ssh.Client
	addr      string
}

func newClient(raw *ssh.Client, addr string) *Client {
	return &Client{sshClient: raw, addr: addr}
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.sshClient.Close()
}

// SSHClient 暴露底层的 ssh.Client (供 SFTP 下载备份文件时复用连接)
func (c *Client) SSHClient() *ssh.Client {
	return c.sshClient
}

// Addr 返回连接的目标地址
func (c *Client) Addr() string {
	return c.addr
}

// RunResult 一次远程命令的底层结果
// stdout 和 stderr 分开捕获: stdout 要拿去做 yaml 解析,不能混入告警输出
type RunResult struct {
	Stdout     []byte
	Stderr     []byte
	ExitStatus int
}

// Run 执行远程命令并等待结束
// 非零退出码不算传输错误,通过 ExitStatus 返回;
// ctx 到期会向远端发 SIGKILL 并返回 ctx.Err()
func (c *Client) Run(ctx context.Context, command string) (RunResult, error) {
	session, err := c.sshClient.NewSession()
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(command); err != nil {
		return RunResult{}, fmt.Errorf("failed to start command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				res.ExitStatus = exitErr.ExitStatus()
				return res, nil
			}
			return res, fmt.Errorf("remote command failed: %w", err)
		}
		return res, nil
	case <-ctx.Done():
		// 超时或取消,尽力终止远端进程
		if killErr := session.Signal(ssh.SIGKILL); killErr != nil {
			return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
				fmt.Errorf("failed to kill command after context done: %v (%w)", killErr, ctx.Err())
		}
		return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, ctx.Err()
	}
}
