package crypto

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
)

// KeySize AES-256 密钥长度
const KeySize = 32

// LoadOrGenerateKey 从指定路径加载密钥
// 文件不存在时生成一个新的随机密钥并以 0600 权限保存
func LoadOrGenerateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("invalid key file size in '%s': expected %d, got %d", path, KeySize, len(key))
		}
		return key, nil
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	// 密钥文件仅所有者可读写
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to save key file: %w", err)
	}

	return key, nil
}
