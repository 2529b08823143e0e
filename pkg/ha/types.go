package ha

// HostInfo `ha host info` 输出中我们关心的字段
// ha 的输出里磁盘单位是 GB
type HostInfo struct {
	DiskFree  *float64 `yaml:"disk_free"`
	DiskTotal *float64 `yaml:"disk_total"`
	Hostname  string   `yaml:"hostname,omitempty"`
}

// Addon 单个已安装 addon 的信息
type Addon struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// BackupMeta 主机上一个已有备份的元数据
// `ha backups` 列表和 `ha backups info <slug>` 都解析到这个结构
type BackupMeta struct {
	Slug   string  `yaml:"slug"`
	Name   string  `yaml:"name,omitempty"`
	Date   string  `yaml:"date,omitempty"`
	Type   string  `yaml:"type,omitempty"`
	SizeMB float64 `yaml:"size,omitempty"`
}
