package element

import (
	"fmt"
	"math"
)

// ConfigurationError 表示路网拓扑或注入函数配置错误
// 这类错误在构建或第一步之前检测，出现后整个运行必须中止
type ConfigurationError struct {
	Entity string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error at %s: %s", e.Entity, e.Reason)
}

// NumericalError 表示注入函数或分配策略给出了非法数值
// Bound 为被违反的容量上界，不适用时为 NaN
type NumericalError struct {
	Entity   string
	Quantity Quantity
	Step     int
	Value    float64
	Bound    float64
}

func (e *NumericalError) Error() string {
	if math.IsNaN(e.Bound) {
		return fmt.Sprintf("numerical error at %s step %d: %s = %v is not a valid flow", e.Entity, e.Step, e.Quantity, e.Value)
	}
	return fmt.Sprintf("numerical error at %s step %d: %s = %v exceeds capacity %v", e.Entity, e.Step, e.Quantity, e.Value, e.Bound)
}

func configurationError(entity, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}
