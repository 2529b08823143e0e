package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Prefix 标识清单文件中已加密字段的前缀
// 加载配置时据此判断某个密码是明文还是密文
const Prefix = "ENC:"

// Crypter 封装 AES-GCM 加解密
type Crypter struct {
	gcm cipher.AEAD
}

// NewCrypter 创建加解密实例, key 必须为 32 字节 (AES-256)
func NewCrypter(key []byte) (*Crypter, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: expected %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Crypter{gcm: gcm}, nil
}

// Encrypt 加密字符串,输出格式: ENC:<Base64(Nonce + Ciphertext)>
func (c *Crypter) Encrypt(plaintext string) (string, error) {
	// Nonce 随密文一起存储,GCM 标准长度 12 字节
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return Prefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密 ENC: 开头的字符串
func (c *Crypter) Decrypt(encoded string) (string, error) {
	if !strings.HasPrefix(encoded, Prefix) {
		return "", fmt.Errorf("invalid format: missing '%s' prefix", Prefix)
	}

	raw := strings.TrimPrefix(encoded, Prefix)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", err
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted 判断字符串是否是加密格式
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
