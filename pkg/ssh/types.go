package ssh

import (
	"context"
	"net"
)

// Dialer 抽象网络拨号行为
// 统一 "直连" 和 "经由跳板机的 SSH 隧道" 两种方式
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// PasswordPrompt 交互式密码回调
// 配置里没有密码和私钥时,连接层用它向用户索要密码
type PasswordPrompt func(prompt string) (string, error)
