package flow

import (
	"fmt"

	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
)

// Signal 给任意分配策略加上固定周期的信号灯控制
// 每次 Distribute 推进一个计数（每个节点每步只解析一次），红灯相位授予的流量为0
type Signal struct {
	policy element.Distribution

	// 信号灯属性
	// phase表示当前相位状态(true为绿灯，false为红灯)
	// truePhaseInterval规定计数器属于该范围内时相位为true
	// interval表示一个完整周期的长度
	// count是当前周期内的计数
	phase             bool
	truePhaseInterval [2]int
	interval          int
	count             int
}

// NewSignal 创建一个信号灯控制的分配策略
func NewSignal(policy element.Distribution, interval int, truePhaseInterval [2]int) *Signal {
	// 验证参数合法性
	if policy == nil {
		panic("policy must not be nil")
	}
	if interval <= 0 {
		panic("interval must be positive")
	}
	if truePhaseInterval[0] < 0 || truePhaseInterval[1] <= truePhaseInterval[0] || truePhaseInterval[1] > interval {
		panic("invalid true phase interval")
	}

	return &Signal{
		policy:            policy,
		truePhaseInterval: truePhaseInterval,
		interval:          interval,
		count:             0,
	}
}

// Distribute 推进一个周期计数，绿灯时交给内部策略，红灯时全部为0
func (light *Signal) Distribute(sending, receiving []float64) ([]float64, []float64) {
	light.Cycle()
	if light.phase {
		return light.policy.Distribute(sending, receiving)
	}
	outflows, inflows := light.policy.Distribute(sending, receiving)
	for i := range outflows {
		outflows[i] = 0
	}
	for j := range inflows {
		inflows[j] = 0
	}
	return outflows, inflows
}

// Cycle 执行一个信号灯周期
func (light *Signal) Cycle() {
	light.count++
	if light.count > light.interval {
		light.count = 1
	}

	// 根据当前计数更新相位
	light.phase = light.count > light.truePhaseInterval[0] && light.count <= light.truePhaseInterval[1]
}

// Rescale 将周期和绿灯区间按 mul 缩放，当前计数按同样比例换算
// 缩放后的周期或绿灯区间为空时返回错误且不修改信号灯
func (light *Signal) Rescale(mul float64) error {
	if !(mul > 0) {
		return &element.ConfigurationError{Entity: "signal", Reason: fmt.Sprintf("scale %v must be positive", mul)}
	}
	scale := func(v int) int { return int(float64(v) * mul) }

	interval := scale(light.interval)
	green := [2]int{scale(light.truePhaseInterval[0]), scale(light.truePhaseInterval[1])}
	if interval <= 0 || green[1] <= green[0] || green[1] > interval {
		return &element.ConfigurationError{Entity: "signal", Reason: fmt.Sprintf("scale %v leaves interval %d with green %v", mul, interval, green)}
	}

	light.interval = interval
	light.truePhaseInterval = green
	light.count = min(max(scale(light.count), 0), interval)
	return nil
}

// SetOffset 设置周期偏移：下一次 Distribute 处于周期内第 offset+1 个时间步
func (light *Signal) SetOffset(offset int) error {
	if offset < 0 || offset >= light.interval {
		return &element.ConfigurationError{Entity: "signal", Reason: fmt.Sprintf("offset %d out of range [0, %d)", offset, light.interval)}
	}
	light.count = offset
	return nil
}

// Phase 返回当前相位状态
func (light *Signal) Phase() bool {
	return light.phase
}

// Interval 返回当前周期长度
func (light *Signal) Interval() int {
	return light.interval
}

// TruePhaseInterval 返回绿灯相位区间
func (light *Signal) TruePhaseInterval() [2]int {
	return light.truePhaseInterval
}
