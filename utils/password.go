package utils

import (
	"fmt"
	"os"
	"syscall"

	"example.com/HassBackup/global"
	"golang.org/x/term"
)

// PromptPassword 在终端上交互式读取密码,不回显
// 非交互式环境(管道/定时任务)下直接报错,避免卡死等待输入
func PromptPassword(prompt string) (string, error) {
	if !global.IsTerminal {
		return "", fmt.Errorf("no password configured and stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pwd), nil
}
