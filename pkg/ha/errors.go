package ha

import (
	"fmt"
	"strings"
)

// CommandError 远程 ha 命令返回了非零退出码
// 会话层捕获到这个错误后会把主机置为 Disabled
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
	Err      error // 传输层错误(超时,连接断开等),非零退出时为 nil
}

func (e *CommandError) Error() string {
	cmd := strings.Join(e.Args, " ")
	if e.Err != nil {
		return fmt.Sprintf("command '%s' failed: %v", cmd, e.Err)
	}
	return fmt.Sprintf("command '%s' exited with status %d", cmd, e.ExitCode)
}

func (e *CommandError) Unwrap() error { return e.Err }

// DataError 命令输出缺少字段或字段值非法
// 例如 disk_total 缺失会导致除零,必须在这里拦截而不是让它变成运行时错误
type DataError struct {
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid response data: %s %s", e.Field, e.Reason)
}
