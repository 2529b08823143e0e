package sftp

import (
	"fmt"

	"example.com/HassBackup/pkg/ssh"
	"github.com/pkg/sftp"
)

// Option 配置函数
type Option func(*Client)

func WithThreadsPerFile(t int) Option {
	return func(c *Client) {
		if t > 0 {
			c.config.ThreadsPerFile = t
		}
	}
}

func WithChunkSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.config.ChunkSize = size
		}
	}
}

// Client 包装 sftp.Client,复用已有的 SSH 连接(含跳板机隧道)
// 用于在备份完成后把 /backup 下的归档文件拉到本地
type Client struct {
	sftpClient *sftp.Client
	config     TransferConfig
}

// NewClient 在现有 SSH 连接上打开 SFTP Subsystem
func NewClient(sshCli *ssh.Client, opts ...Option) (*Client, error) {
	client, err := sftp.NewClient(sshCli.SSHClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create sftp subsystem: %w", err)
	}
	c := &Client{
		sftpClient: client,
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close 关闭 SFTP 会话 (不关闭底层的 SSH 连接)
func (c *Client) Close() error {
	return c.sftpClient.Close()
}

// Stat 查询远程文件信息,下载前用来确认归档存在并拿到大小
func (c *Client) Stat(remotePath string) (int64, error) {
	info, err := c.sftpClient.Stat(remotePath)
	if err != nil {
		return 0, fmt.Errorf("stat remote path failed: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("'%s' is a directory", remotePath)
	}
	return info.Size(), nil
}

// JoinPath 远程路径拼接 (SFTP 协议强制 forward slash)
func (c *Client) JoinPath(elem ...string) string {
	return c.sftpClient.Join(elem...)
}
