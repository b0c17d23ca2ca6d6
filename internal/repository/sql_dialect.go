package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildSearchCondition 构建多列模糊搜索条件，并返回参数数量。
func buildSearchCondition(db *gorm.DB, columns []string) (string, int) {
	return buildSearchConditionByDialect(dbDialectName(db), columns)
}

func buildSearchConditionByDialect(dialect string, columns []string) (string, int) {
	operator := likeOperatorByDialect(dialect)
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		if operator == "LIKE" {
			// sqlite 的 LIKE 仅对 ASCII 忽略大小写，统一转小写比较
			parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, trimmed))
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s ? ESCAPE '\'`, trimmed, operator))
	}
	if len(parts) == 0 {
		return "", 0
	}
	return "(" + strings.Join(parts, " OR ") + ")", len(parts)
}

// searchPattern 生成 LIKE 匹配串，转义通配符
func searchPattern(dialect, keyword string) string {
	keyword = strings.TrimSpace(keyword)
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	escaped := replacer.Replace(keyword)
	if likeOperatorByDialect(dialect) == "LIKE" {
		escaped = strings.ToLower(escaped)
	}
	return "%" + escaped + "%"
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
