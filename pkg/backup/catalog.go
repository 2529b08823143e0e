package backup

import (
	"context"
	"sort"

	"example.com/HassBackup/pkg/ha"
)

// Catalog 单个主机上已安装 addon 的缓存
// 惰性获取,一次运行内最多拉取一次;拉取成功后就是稳定快照,
// 后续的备份解析看到的都是同一份列表
type Catalog struct {
	fetch  func(ctx context.Context) ([]ha.Addon, error)
	bySlug map[string]ha.Addon
	sorted []ha.Addon
}

// NewCatalog fetch 负责实际执行 `ha addons` 并解析
// 拉取失败不会缓存,下次调用会重试(前提是主机还没被禁用)
func NewCatalog(fetch func(ctx context.Context) ([]ha.Addon, error)) *Catalog {
	return &Catalog{fetch: fetch}
}

// Installed 返回 slug -> addon 的映射,首次调用触发拉取
func (c *Catalog) Installed(ctx context.Context) (map[string]ha.Addon, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	return c.bySlug, nil
}

// Sorted 按显示名称升序(字节序,同名按 slug)返回已安装列表
func (c *Catalog) Sorted(ctx context.Context) ([]ha.Addon, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	return c.sorted, nil
}

// Invalidate 清空缓存,下次访问重新拉取
// 正常运行期间不会调用,快照在一次运行内保持稳定
func (c *Catalog) Invalidate() {
	c.bySlug = nil
	c.sorted = nil
}

func (c *Catalog) ensure(ctx context.Context) error {
	if c.bySlug != nil {
		return nil
	}

	addons, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	bySlug := make(map[string]ha.Addon, len(addons))
	sorted := make([]ha.Addon, len(addons))
	copy(sorted, addons)
	for _, a := range addons {
		bySlug[a.Slug] = a
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Slug < sorted[j].Slug
	})

	c.bySlug = bySlug
	c.sorted = sorted
	return nil
}
