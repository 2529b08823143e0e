package ssh

import (
	"time"

	"golang.org/x/crypto/ssh"
)

// StartKeepAlive 开启一个协程,定期向 SSH Server 发送心跳
// ha backups new 动辄运行几十分钟,期间连接空闲,没有心跳容易被中间设备掐断
// 心跳失败时关闭连接,让正在使用的 Session 立刻收到错误,fallback 可选
func StartKeepAlive(client *ssh.Client, interval time.Duration, fallback func(err error)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			<-ticker.C

			// keepalive@openssh.com 是 OpenSSH 标准的心跳请求类型
			// wantReply = true: 服务器不回复说明连接已经断了
			_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
			if err != nil {
				client.Close()
				if fallback != nil {
					fallback(err)
				}
				return
			}
		}
	}()
}
