package ha

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ha 命令的标准输出是 yaml 格式的结构化数据
// 这里只做解析和字段校验,缺字段一律转成 DataError

// ParseHostInfo 解析 `ha host info` 的输出
// disk_total 为零或缺失是数据错误: 后续要用它算空闲百分比,不能放过除零
func ParseHostInfo(out []byte) (*HostInfo, error) {
	var info HostInfo
	if err := yaml.Unmarshal(out, &info); err != nil {
		return nil, &DataError{Field: "host info", Reason: fmt.Sprintf("unparsable: %v", err)}
	}
	if info.DiskFree == nil {
		return nil, &DataError{Field: "disk_free", Reason: "missing"}
	}
	if info.DiskTotal == nil {
		return nil, &DataError{Field: "disk_total", Reason: "missing"}
	}
	if *info.DiskTotal == 0 {
		return nil, &DataError{Field: "disk_total", Reason: "is zero"}
	}
	return &info, nil
}

// DiskFreePct 空闲磁盘百分比, ParseHostInfo 已保证分母非零
func (i *HostInfo) DiskFreePct() float64 {
	return *i.DiskFree / *i.DiskTotal * 100.0
}

// ParseAddons 解析 `ha addons` 的输出
func ParseAddons(out []byte) ([]Addon, error) {
	var doc struct {
		Addons []Addon `yaml:"addons"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, &DataError{Field: "addons", Reason: fmt.Sprintf("unparsable: %v", err)}
	}
	if doc.Addons == nil {
		return nil, &DataError{Field: "addons", Reason: "missing"}
	}
	for _, a := range doc.Addons {
		if a.Slug == "" {
			return nil, &DataError{Field: "addons[].slug", Reason: "missing"}
		}
	}
	return doc.Addons, nil
}

// ParseBackups 解析 `ha backups` 的输出
func ParseBackups(out []byte) ([]BackupMeta, error) {
	var doc struct {
		Backups []BackupMeta `yaml:"backups"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, &DataError{Field: "backups", Reason: fmt.Sprintf("unparsable: %v", err)}
	}
	if doc.Backups == nil {
		return nil, &DataError{Field: "backups", Reason: "missing"}
	}
	return doc.Backups, nil
}

// ParseBackupSlug 解析 `ha backups new` 的输出,拿到新备份的 slug
func ParseBackupSlug(out []byte) (string, error) {
	var doc struct {
		Slug string `yaml:"slug"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return "", &DataError{Field: "slug", Reason: fmt.Sprintf("unparsable: %v", err)}
	}
	if doc.Slug == "" {
		return "", &DataError{Field: "slug", Reason: "missing"}
	}
	return doc.Slug, nil
}

// ParseBackupInfo 解析 `ha backups info <slug>` 的输出
func ParseBackupInfo(out []byte) (*BackupMeta, error) {
	var meta BackupMeta
	if err := yaml.Unmarshal(out, &meta); err != nil {
		return nil, &DataError{Field: "backup info", Reason: fmt.Sprintf("unparsable: %v", err)}
	}
	if meta.Slug == "" {
		return nil, &DataError{Field: "backup info slug", Reason: "missing"}
	}
	return &meta, nil
}
