package repository

import "gorm.io/gorm"

// 仓储层单页上限
const maxPageSize = 200

// pageWindow 计算 limit / offset，pageSize <= 0 表示不分页
func pageWindow(page, pageSize int) (limit, offset int, paged bool) {
	if pageSize <= 0 {
		return 0, 0, false
	}
	limit = min(pageSize, maxPageSize)
	return limit, (max(page, 1) - 1) * limit, true
}

// findPage 先统计总数，再按排序取当前页；preloads 只作用于取数
func findPage[T any](query *gorm.DB, page, pageSize int, order string, preloads ...string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit, offset, ok := pageWindow(page, pageSize); ok {
		query = query.Limit(limit).Offset(offset)
	}
	for _, name := range preloads {
		query = query.Preload(name)
	}
	var rows []T
	if err := query.Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
