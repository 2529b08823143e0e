package models

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSSHPort SSH 默认端口
const DefaultSSHPort = 22

// DefaultCommandTimeout 远程命令的默认超时时间
// ha backups new 可能运行数十分钟,所以默认值给得比较宽
const DefaultCommandTimeout = 30 * time.Minute

// Inventory 对应 yaml 清单文件的顶层结构: 实例名 -> 主机配置
// 主机按声明顺序保存,备份的执行顺序和文件中的顺序一致
type Inventory struct {
	Hosts []*HostConfig
}

// UnmarshalYAML 手动遍历顶层 mapping 以保留主机的声明顺序
// (map[string]... 会丢失顺序)
func (inv *Inventory) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("inventory root must be a mapping of host name to host config")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("invalid host name at line %d: %w", node.Content[i].Line, err)
		}
		hc := &HostConfig{}
		if err := node.Content[i+1].Decode(hc); err != nil {
			return fmt.Errorf("invalid config for host '%s': %w", name, err)
		}
		hc.Name = name
		inv.Hosts = append(inv.Hosts, hc)
	}
	return nil
}

// MarshalYAML 按原顺序写回 mapping (loadpwd 回写配置时使用)
func (inv Inventory) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, hc := range inv.Hosts {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(hc.Name); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(hc); err != nil {
			return nil, err
		}
		root.Content = append(root.Content, keyNode, valNode)
	}
	return root, nil
}

// Get 按名称查找主机配置
func (inv *Inventory) Get(name string) (*HostConfig, bool) {
	for _, hc := range inv.Hosts {
		if hc.Name == name {
			return hc, true
		}
	}
	return nil, false
}

// HostConfig 定义单个 Home Assistant 实例及其计划备份
type HostConfig struct {
	Name string `yaml:"-"` // 清单中的实例名(mapping key)

	// ssh 连接参数
	Host          string `yaml:"host"`
	User          string `yaml:"user,omitempty"`
	SSHPort       int    `yaml:"sshport,omitempty"`
	KeyPath       string `yaml:"key_path,omitempty"`
	Passphrase    string `yaml:"passphrase,omitempty"`    // 私钥密码,支持 ENC: 加密存储
	Password      string `yaml:"password,omitempty"`      // 登录密码,支持 ENC: 加密存储
	ProxyJump     string `yaml:"proxy_jump,omitempty"`    // 跳板机 [user@]host[:port]
	SourceProfile string `yaml:"source_needed,omitempty"` // 登录后需要 source 的 profile(获取 ha 授权令牌)

	// 远程命令超时,零值表示使用 DefaultCommandTimeout
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`

	// 本主机上计划执行的备份,按声明顺序执行
	Backups []*BackupDecl `yaml:"backups,omitempty"`
}

// Local 判断该实例是否跑在本机上(不走 ssh)
func (hc *HostConfig) Local() bool {
	return hc.Host == "" || hc.Host == "localhost" || hc.Host == "127.0.0.1"
}

// Port 返回生效的 SSH 端口
func (hc *HostConfig) Port() int {
	if hc.SSHPort == 0 {
		return DefaultSSHPort
	}
	return hc.SSHPort
}

// Timeout 返回生效的命令超时
func (hc *HostConfig) Timeout() time.Duration {
	if hc.CommandTimeout <= 0 {
		return DefaultCommandTimeout
	}
	return hc.CommandTimeout
}

// BackupDecl 定义一个声明式备份: 名称 + folders/addons 的 include/exclude
type BackupDecl struct {
	Name    string    `yaml:"name"`
	Enabled *FlexBool `yaml:"enabled,omitempty"` // 缺省为启用
	Folders Selection `yaml:"folders,omitempty"`
	Addons  Selection `yaml:"addons,omitempty"`
}

// IsEnabled 缺省(字段不存在)视为启用
func (d *BackupDecl) IsEnabled() bool {
	if d.Enabled == nil {
		return true
	}
	return bool(*d.Enabled)
}

// Selection 一组 include/exclude 列表,顺序保留自配置文件
type Selection struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// FlexBool 兼容布尔值和字符串两种写法的开关
// 旧配置文件中存在 enabled: "false" / "False" 这种字符串写法,必须继续支持
type FlexBool bool

func (b *FlexBool) UnmarshalYAML(node *yaml.Node) error {
	var v bool
	if err := node.Decode(&v); err == nil {
		*b = FlexBool(v)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("enabled must be a bool or string, got %s", node.Tag)
	}
	*b = FlexBool(!strings.EqualFold(s, "false"))
	return nil
}

func (b FlexBool) MarshalYAML() (interface{}, error) {
	return bool(b), nil
}
