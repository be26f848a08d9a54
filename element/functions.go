package element

import "math"

// SendingFlow 定义基本图的自由流分支：给定密度返回本步愿意发送的流量
type SendingFlow interface {
	Sending(density float64) float64
}

// ReceivingFlow 定义基本图的拥堵分支：给定密度返回本步能够接收的流量
type ReceivingFlow interface {
	Receiving(density float64) float64
}

// Demand 定义源的外生到达率，只依赖时间步
type Demand interface {
	Demand(step int) float64
}

// Distribution 定义节点的合流/分流策略
// outflows 与上游实体列表对齐，inflows 与下游实体列表对齐
type Distribution interface {
	Distribute(sending, receiving []float64) (outflows, inflows []float64)
}

// SendingFlowFunc 将普通函数适配为 SendingFlow
type SendingFlowFunc func(density float64) float64

// Sending 调用 f(density)
func (f SendingFlowFunc) Sending(density float64) float64 { return f(density) }

// ReceivingFlowFunc 将普通函数适配为 ReceivingFlow
type ReceivingFlowFunc func(density float64) float64

// Receiving 调用 f(density)
func (f ReceivingFlowFunc) Receiving(density float64) float64 { return f(density) }

// DemandFunc 将普通函数适配为 Demand
type DemandFunc func(step int) float64

// Demand 调用 f(step)
func (f DemandFunc) Demand(step int) float64 { return f(step) }

// DistributionFunc 将普通函数适配为 Distribution
type DistributionFunc func(sending, receiving []float64) (outflows, inflows []float64)

// Distribute 调用 f(sending, receiving)
func (f DistributionFunc) Distribute(sending, receiving []float64) ([]float64, []float64) {
	return f(sending, receiving)
}

// Unbounded 是终点的默认接收函数，接收能力恒为无穷大
var Unbounded ReceivingFlow = ReceivingFlowFunc(func(float64) float64 { return math.Inf(1) })
