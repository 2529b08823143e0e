package ssh

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"example.com/HassBackup/pkg/models"
	"golang.org/x/crypto/ssh"
)

const (
	dialTimeout      = 10 * time.Second
	handshakeTimeout = 15 * time.Second
	// 备份命令可能运行很久,用心跳保住空闲的连接
	keepAliveInterval = 30 * time.Second
)

// Connector 负责按主机配置建立 SSH 连接
type Connector struct {
	// Prompt 可选;配置中既没有密码也没有私钥时的交互式兜底
	Prompt PasswordPrompt
}

func NewConnector(prompt PasswordPrompt) *Connector {
	return &Connector{Prompt: prompt}
}

// Connect 建立到目标主机的连接
// 配置了 proxy_jump 时先连跳板机,再经由隧道拨号目标
func (c *Connector) Connect(ctx context.Context, hc *models.HostConfig) (*Client, error) {
	var dialer Dialer = &net.Dialer{Timeout: dialTimeout}
	var jump *Client

	if hc.ProxyJump != "" {
		var err error
		jump, err = c.connectJump(ctx, hc)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to jump host '%s': %w", hc.ProxyJump, err)
		}
		dialer = &SSHProxyDialer{Client: jump.sshClient}
	}

	sshConfig, err := c.buildSSHConfig(hc)
	if err != nil {
		if jump != nil {
			jump.Close()
		}
		return nil, fmt.Errorf("failed to build ssh config for '%s': %w", hc.Name, err)
	}

	targetAddr := net.JoinHostPort(hc.Host, strconv.Itoa(hc.Port()))
	conn, err := dialer.DialContext(ctx, "tcp", targetAddr)
	if err != nil {
		if jump != nil {
			jump.Close()
		}
		return nil, fmt.Errorf("failed to dial target '%s' (%s): %w", hc.Name, targetAddr, err)
	}

	ncc, chans, reqs, err := ssh.NewClientConn(conn, targetAddr, sshConfig)
	if err != nil {
		conn.Close()
		if jump != nil {
			jump.Close()
		}
		return nil, fmt.Errorf("ssh handshake failed for '%s': %w", hc.Name, err)
	}
	raw := ssh.NewClient(ncc, chans, reqs)

	// 连接一旦断开,正在等待的 Session 会立刻收到错误
	StartKeepAlive(raw, keepAliveInterval, nil)

	return newClient(raw, targetAddr), nil
}

// connectJump 连接跳板机, 地址格式 [user@]host[:port]
// 跳板机复用目标主机的认证配置
func (c *Connector) connectJump(ctx context.Context, hc *models.HostConfig) (*Client, error) {
	user, host, port := parseJumpAddr(hc.ProxyJump, hc.User)
	jumpCfg := &models.HostConfig{
		Name:       hc.Name + "-jump",
		Host:       host,
		User:       user,
		SSHPort:    port,
		KeyPath:    hc.KeyPath,
		Passphrase: hc.Passphrase,
		Password:   hc.Password,
	}
	return c.Connect(ctx, jumpCfg)
}

// buildSSHConfig 根据主机配置选择认证方式: 私钥 > 密码 > 交互式
func (c *Connector) buildSSHConfig(hc *models.HostConfig) (*ssh.ClientConfig, error) {
	var auth AuthMethod
	switch {
	case hc.KeyPath != "":
		auth = &KeyAuth{Path: hc.KeyPath, Passphrase: hc.Passphrase}
	case hc.Password != "":
		auth = &PasswordAuth{Password: hc.Password}
	default:
		auth = &PromptAuth{Prompt: c.Prompt, Label: fmt.Sprintf("%s@%s", hc.User, hc.Host)}
	}

	method, err := auth.GetMethod()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            hc.User,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: 集成 known_hosts 检查
		Timeout:         handshakeTimeout,
	}, nil
}

// parseJumpAddr 解析 [user@]host[:port]
func parseJumpAddr(addr, defaultUser string) (user, host string, port int) {
	user = defaultUser
	host = addr
	port = models.DefaultSSHPort

	if i := strings.Index(host, "@"); i >= 0 {
		user = host[:i]
		host = host[i+1:]
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			host = h
			port = n
		}
	}
	return user, host, port
}
