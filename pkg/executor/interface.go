package executor

import (
	"context"
	"strings"
	"time"
)

// Result 一次命令执行的结构化结果
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Executor 在 Home Assistant 主机上执行命令
// 非零退出码不是 error: 调用方要根据 ExitCode 决定是否禁用主机
// error 只表示命令没能执行(连接断开,超时,进程无法启动)
type Executor interface {
	Run(ctx context.Context, args []string) (Result, error)
}

// Quote 对单个参数做 shell 单引号转义
// 备份名称里可能有空格和日期,经过 ssh 下发时必须转义
func Quote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n'\"\\$`&|;<>()*?[]#~=%") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// QuoteAll 把参数向量拼成一条可下发的 shell 命令
func QuoteAll(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
