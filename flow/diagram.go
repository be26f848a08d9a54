// Package flow 提供基本图、节点分配策略和需求函数的常用实现
package flow

import "math"

// Triangular 三角形基本图
//   - 发送（自由流分支）: min(MaxSpeed*k, MaxFlow)
//   - 接收（拥堵分支）: min(WaveSpeed*(MaxDensity-k), MaxFlow)
//
// WaveSpeed 为0时取 MaxSpeed
type Triangular struct {
	MaxSpeed   float64
	WaveSpeed  float64
	MaxFlow    float64
	MaxDensity float64
}

// NewTriangular 创建一个三角形基本图
func NewTriangular(maxSpeed, waveSpeed, maxFlow, maxDensity float64) Triangular {
	if maxSpeed <= 0 || maxFlow <= 0 || maxDensity <= 0 {
		panic("triangular diagram parameters must be positive")
	}
	if waveSpeed < 0 {
		panic("wave speed must be non-negative")
	}
	return Triangular{MaxSpeed: maxSpeed, WaveSpeed: waveSpeed, MaxFlow: maxFlow, MaxDensity: maxDensity}
}

func (d Triangular) waveSpeed() float64 {
	if d.WaveSpeed == 0 {
		return d.MaxSpeed
	}
	return d.WaveSpeed
}

// Sending 返回自由流分支的发送流量
func (d Triangular) Sending(density float64) float64 {
	return math.Min(d.MaxSpeed*density, d.MaxFlow)
}

// Receiving 返回拥堵分支的接收流量，密度超过 MaxDensity 时为0
func (d Triangular) Receiving(density float64) float64 {
	return math.Max(0, math.Min(d.waveSpeed()*(d.MaxDensity-density), d.MaxFlow))
}

// CriticalDensity 返回自由流分支达到通行能力时的密度
func (d Triangular) CriticalDensity() float64 {
	return d.MaxFlow / d.MaxSpeed
}

// ShockSpeed 返回两种状态之间激波的传播速度（LWR）：(qU-qD)/(kU-kD)
// 正值表示向下游传播，负值表示向上游传播
func (d Triangular) ShockSpeed(upstreamDensity, downstreamDensity float64) float64 {
	if upstreamDensity == downstreamDensity {
		return 0
	}
	qU := d.Flow(upstreamDensity)
	qD := d.Flow(downstreamDensity)
	return (qU - qD) / (upstreamDensity - downstreamDensity)
}

// Flow 返回平衡状态下的流量 min(Sending, Receiving)
func (d Triangular) Flow(density float64) float64 {
	return math.Min(d.Sending(density), d.Receiving(density))
}

// Greenshields 抛物线基本图 q = v*k*(1-k/K)，临界密度为 K/2
type Greenshields struct {
	MaxSpeed   float64
	MaxDensity float64
}

func (d Greenshields) capacity() float64 {
	return d.MaxSpeed * d.MaxDensity / 4
}

func (d Greenshields) flow(density float64) float64 {
	return math.Max(0, d.MaxSpeed*density*(1-density/d.MaxDensity))
}

// Sending 临界密度以下取平衡流量，以上取通行能力
func (d Greenshields) Sending(density float64) float64 {
	if density >= d.MaxDensity/2 {
		return d.capacity()
	}
	return d.flow(density)
}

// Receiving 临界密度以下取通行能力，以上取平衡流量
func (d Greenshields) Receiving(density float64) float64 {
	if density <= d.MaxDensity/2 {
		return d.capacity()
	}
	return d.flow(density)
}
