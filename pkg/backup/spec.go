package backup

import (
	"fmt"
	"sort"
	"time"

	"example.com/HassBackup/pkg/ha"
	"example.com/HassBackup/pkg/models"
)

// Wildcard include 列表中的通配符,展开为全部已安装 addon
const Wildcard = "*"

// CoreFolder homeassistant 核心配置目录,等价于 GUI 里的 "Home Assistant" 备份项
// 解析结果中它永远排在第一位,和 GUI 的主分组保持一致
const CoreFolder = "homeassistant"

// Spec 一个已声明的备份任务及其执行结果
type Spec struct {
	Name    string
	Enabled bool

	FoldersInclude []string
	FoldersExclude []string
	AddonsInclude  []string
	AddonsExclude  []string

	// 执行后由编排层填充
	Result *Result
}

// Result 一次备份执行的结果
type Result struct {
	Slug      string
	SizeMB    float64
	Runtime   time.Duration
	Succeeded bool

	// `ha backups info` 的原始输出,下载备份时一并存盘
	InfoRaw []byte
}

// FromDecl 从配置声明构造 Spec
func FromDecl(d *models.BackupDecl) *Spec {
	return &Spec{
		Name:           d.Name,
		Enabled:        d.IsEnabled(),
		FoldersInclude: d.Folders.Include,
		FoldersExclude: d.Folders.Exclude,
		AddonsInclude:  d.Addons.Include,
		AddonsExclude:  d.Addons.Exclude,
	}
}

// ExecName 实际下发给 ha 的备份名,默认追加当天日期
func (s *Spec) ExecName(now time.Time, addDate bool) string {
	if !addDate {
		return s.Name
	}
	return s.Name + "-" + now.Format("2006-01-02")
}

// ResolveFolders 把 folder 的 include/exclude 声明展开成确定有序的列表
//
// 规则:
//   - include 中的通配符尚未实现(没有权威的默认目录清单可展开)
//   - 只写 exclude 不写 include 没有可减的基准集合,同样拒绝
//   - exclude 的目标必须存在于 include 集合中,folder 的排除是严格的
//   - 结果按字典序排序, homeassistant 强制排第一
func ResolveFolders(include, exclude []string) ([]string, error) {
	set := map[string]bool{}

	for _, f := range include {
		if f == Wildcard {
			return nil, &UnsupportedError{Feature: "folder wildcard include"}
		}
		set[f] = true
	}

	if len(set) == 0 && len(exclude) > 0 {
		return nil, &UnsupportedError{Feature: "folder exclude without include"}
	}

	for _, f := range exclude {
		if !set[f] {
			return nil, &ConfigError{Reason: fmt.Sprintf("folder exclude '%s' not in include set", f)}
		}
		delete(set, f)
	}

	folders := make([]string, 0, len(set))
	for f := range set {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	// homeassistant 永远第一
	for i, f := range folders {
		if f == CoreFolder {
			copy(folders[1:i+1], folders[:i])
			folders[0] = CoreFolder
			break
		}
	}

	return folders, nil
}

// ResolveAddons 把 addon 的 include/exclude 声明展开成确定有序的列表
//
// 和 folder 的区别(有意不对称):
//   - 只写 exclude 时基准集合是全部已安装 addon(已安装列表是已知的)
//   - 通配符展开为全部已安装 addon
//   - include 里未安装的 addon 照原样接受,不做校验
//   - exclude 不存在的成员是静默 no-op
//   - 排序按目录里的显示名称;不在目录里的按 slug 本身排,保证顺序确定
func ResolveAddons(include, exclude []string, installed map[string]ha.Addon) ([]string, error) {
	set := map[string]bool{}

	if len(include) == 0 && len(exclude) > 0 {
		for slug := range installed {
			set[slug] = true
		}
	}

	for _, a := range include {
		if a == Wildcard {
			for slug := range installed {
				set[slug] = true
			}
		} else {
			set[a] = true
		}
	}

	for _, a := range exclude {
		delete(set, a)
	}

	addons := make([]string, 0, len(set))
	for a := range set {
		addons = append(addons, a)
	}
	sortAddons(addons, installed)

	return addons, nil
}

// sortAddons 按显示名称排序(和 Hass GUI 一致),同名或无名时按 slug
func sortAddons(slugs []string, installed map[string]ha.Addon) {
	key := func(slug string) string {
		if a, ok := installed[slug]; ok && a.Name != "" {
			return a.Name
		}
		return slug
	}
	sort.Slice(slugs, func(i, j int) bool {
		ki, kj := key(slugs[i]), key(slugs[j])
		if ki != kj {
			return ki < kj
		}
		return slugs[i] < slugs[j]
	})
}

// CommandArgs 按解析后的顺序生成 --folders/--addons 参数
// 顺序只影响日志可读性和可复现性,对远程命令本身无影响
func CommandArgs(folders, addons []string) []string {
	args := make([]string, 0, 2*(len(folders)+len(addons)))
	for _, f := range folders {
		args = append(args, "--folders", f)
	}
	for _, a := range addons {
		args = append(args, "--addons", a)
	}
	return args
}
