package ssh

import (
	"context"
	"net"

	"golang.org/x/crypto/ssh"
)

// SSHProxyDialer 实现 Dialer 接口,把流量转发进跳板机的 SSH 隧道
type SSHProxyDialer struct {
	Client *ssh.Client
}

func (s *SSHProxyDialer) Dial(network, addr string) (net.Conn, error) {
	return s.Client.Dial(network, addr)
}

// DialContext ssh.Client.Dial 本身不接受 Context,
// 用协程套一层,让拨号能被取消
func (s *SSHProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		conn, err := s.Client.Dial(network, addr)
		ch <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.conn, nil
	}
}
