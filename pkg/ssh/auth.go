package ssh

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// AuthMethod 获取 SSH 认证方法的接口
type AuthMethod interface {
	GetMethod() (ssh.AuthMethod, error)
}

// PasswordAuth 密码认证
type PasswordAuth struct {
	Password string
}

func (p *PasswordAuth) GetMethod() (ssh.AuthMethod, error) {
	if p.Password == "" {
		return nil, fmt.Errorf("auth type is password but password is empty")
	}
	return ssh.Password(p.Password), nil
}

// KeyAuth 私钥认证
type KeyAuth struct {
	Path       string
	Passphrase string
}

func (k *KeyAuth) GetMethod() (ssh.AuthMethod, error) {
	keyData, err := os.ReadFile(expandHomeDir(k.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var signer ssh.Signer
	if k.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(k.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

// PromptAuth 交互式密码认证,延迟到真正认证时才向用户提问
type PromptAuth struct {
	Prompt PasswordPrompt
	Label  string // 提示语中的主机标识
}

func (p *PromptAuth) GetMethod() (ssh.AuthMethod, error) {
	if p.Prompt == nil {
		return nil, fmt.Errorf("no password, no key, and no interactive prompt available")
	}
	return ssh.PasswordCallback(func() (string, error) {
		return p.Prompt(fmt.Sprintf("%s password: ", p.Label))
	}), nil
}

// expandHomeDir 展开路径开头的 ~
func expandHomeDir(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + path[1:]
		}
	}
	return path
}
