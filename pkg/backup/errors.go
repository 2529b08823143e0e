package backup

import "fmt"

// ConfigError 单个备份声明的配置错误
// 只影响这一个备份,不会中断主机或整个运行
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Reason
}

// UnsupportedError 配置用到了尚未实现的特性(如 folder 通配符)
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}
