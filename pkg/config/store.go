package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"example.com/HassBackup/pkg/crypto"
	"example.com/HassBackup/pkg/models"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile 未指定配置文件时的默认文件名
const DefaultConfigFile = "hassio.yaml"

const keyFileName = ".habak_key"

// DefaultKeyPath 密码加密密钥的默认存放位置
func DefaultKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return keyFileName
	}
	return filepath.Join(home, keyFileName)
}

// Store 负责清单文件的读写和敏感字段的加解密
type Store struct {
	Path    string
	KeyPath string
}

func NewStore(path, keyPath string) *Store {
	return &Store{Path: path, KeyPath: keyPath}
}

// Load 读取清单文件并完成校验
// 所有结构性错误会在这里一次性暴露,不会等到远程命令执行时才发现
func (s *Store) Load() (*models.Inventory, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var inv models.Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", s.Path, err)
	}

	if err := Validate(&inv); err != nil {
		return nil, err
	}

	if err := s.decryptSecrets(&inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

// Save 回写清单文件,明文密码会先加密
// 注意: yaml 重新序列化会丢失原文件中的注释
func (s *Store) Save(inv *models.Inventory) error {
	if err := s.encryptSecrets(inv); err != nil {
		return err
	}

	data, err := yaml.Marshal(inv)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Validate 检查清单的结构性错误,一次性返回全部问题
func Validate(inv *models.Inventory) error {
	var errs []error

	if len(inv.Hosts) == 0 {
		errs = append(errs, fmt.Errorf("no hosts defined"))
	}

	seen := map[string]bool{}
	for _, hc := range inv.Hosts {
		if seen[hc.Name] {
			errs = append(errs, fmt.Errorf("duplicate host name '%s'", hc.Name))
		}
		seen[hc.Name] = true

		if hc.SSHPort < 0 || hc.SSHPort > 65535 {
			errs = append(errs, fmt.Errorf("host '%s': invalid sshport %d", hc.Name, hc.SSHPort))
		}
		if hc.Password != "" && hc.KeyPath != "" {
			errs = append(errs, fmt.Errorf("host '%s': password and key_path are mutually exclusive", hc.Name))
		}

		names := map[string]bool{}
		for i, b := range hc.Backups {
			if b.Name == "" {
				errs = append(errs, fmt.Errorf("host '%s': backup #%d has no name", hc.Name, i+1))
				continue
			}
			if names[b.Name] {
				errs = append(errs, fmt.Errorf("host '%s': duplicate backup name '%s'", hc.Name, b.Name))
			}
			names[b.Name] = true
		}
	}

	return errors.Join(errs...)
}

// decryptSecrets 解密清单中 ENC: 开头的密码字段
// 只有确实存在密文时才会去加载密钥文件
func (s *Store) decryptSecrets(inv *models.Inventory) error {
	var crypter *crypto.Crypter
	get := func() (*crypto.Crypter, error) {
		if crypter != nil {
			return crypter, nil
		}
		key, err := crypto.LoadOrGenerateKey(s.KeyPath)
		if err != nil {
			return nil, err
		}
		crypter, err = crypto.NewCrypter(key)
		return crypter, err
	}

	for _, hc := range inv.Hosts {
		for _, field := range []*string{&hc.Password, &hc.Passphrase} {
			if !crypto.IsEncrypted(*field) {
				continue
			}
			c, err := get()
			if err != nil {
				return err
			}
			plain, err := c.Decrypt(*field)
			if err != nil {
				return fmt.Errorf("host '%s': %w", hc.Name, err)
			}
			*field = plain
		}
	}
	return nil
}

// encryptSecrets 加密清单中的明文密码字段
func (s *Store) encryptSecrets(inv *models.Inventory) error {
	key, err := crypto.LoadOrGenerateKey(s.KeyPath)
	if err != nil {
		return err
	}
	crypter, err := crypto.NewCrypter(key)
	if err != nil {
		return err
	}

	for _, hc := range inv.Hosts {
		for _, field := range []*string{&hc.Password, &hc.Passphrase} {
			if *field == "" || crypto.IsEncrypted(*field) {
				continue
			}
			enc, err := crypter.Encrypt(*field)
			if err != nil {
				return fmt.Errorf("host '%s': %w", hc.Name, err)
			}
			*field = enc
		}
	}
	return nil
}
