package orchestrator

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// DefaultPreflightTimeout ICMP 预检的默认超时
const DefaultPreflightTimeout = 5 * time.Second

// Reachable 通过 ICMP 判断主机是否可达
// 失联主机直接在这里拦下,避免在 SSH 拨号上长时间阻塞
func Reachable(ctx context.Context, host string, timeout time.Duration) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return fmt.Errorf("failed to create pinger: %w", err)
	}
	// linux 上 ICMP raw socket 需要特权
	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = timeout

	if err := pinger.RunWithContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no icmp reply from %s", host)
	}
	return nil
}
