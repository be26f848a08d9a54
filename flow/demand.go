package flow

import "math"

// ConstantDemand 恒定的外生需求
type ConstantDemand float64

// Demand 实现 element.Demand
func (d ConstantDemand) Demand(int) float64 {
	return float64(d)
}

// Pulse 在 [Start, End) 时间步内以 Rate 到达，其他时间为0
type Pulse struct {
	Rate  float64
	Start int
	End   int
}

// Demand 实现 element.Demand
func (p Pulse) Demand(step int) float64 {
	if step >= p.Start && step < p.End {
		return p.Rate
	}
	return 0
}

// Profile 按时间步给出的需求序列，超出长度后循环使用
type Profile struct {
	values []float64
}

// NewProfile 调整原始需求数据并生成需求序列
//
// 参数:
//   - raw: 原始需求数据（每个时间步一个值）
//   - multiplier: 需求乘数
//   - offset: 需求偏移量
//
// 公式: adjusted = raw * multiplier + offset，负值截断为0
func NewProfile(raw []float64, multiplier, offset float64) *Profile {
	values := make([]float64, len(raw))
	for i, d := range raw {
		values[i] = math.Max(0, d*multiplier+offset)
	}
	return &Profile{values: values}
}

// Demand 实现 element.Demand，空序列返回0
func (p *Profile) Demand(step int) float64 {
	if len(p.values) == 0 || step < 0 {
		return 0
	}
	return p.values[step%len(p.values)]
}

// Len 返回需求序列长度
func (p *Profile) Len() int {
	return len(p.values)
}
