package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用 JSON 对象字段（如门店营业时间）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalJSONColumn(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	return scanJSONColumn(value, j)
}

func marshalJSONColumn(v interface{}) (driver.Value, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// scanJSONColumn 兼容 postgres 返回 []byte 与 sqlite 返回 string 两种情况
func scanJSONColumn(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
