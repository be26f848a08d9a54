package flow

import (
	"fmt"
	"math"

	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"gonum.org/v1/gonum/floats"
)

// ratioTolerance 是分流比之和允许的误差
const ratioTolerance = 1e-9

// MinRule 单进单出节点的 Godunov/Daganzo 最小值规则：
// outflow = inflow = min(sendingFlow, receivingFlow)
//
// 输入不是 1x1 时返回与输入等长的零向量，由节点报告配置错误
var MinRule element.Distribution = element.DistributionFunc(minRule)

func minRule(sending, receiving []float64) ([]float64, []float64) {
	if len(sending) != 1 || len(receiving) != 1 {
		return []float64{0}, []float64{0}
	}
	q := math.Min(sending[0], receiving[0])
	return []float64{q}, []float64{q}
}

// PriorityMerge 多进单出的合流策略
// 总发送量不超过接收能力时全部通过；否则按优先级比例“注水”分配：
// 需求小于自身份额的上游取其全部需求，剩余能力在其余上游之间按优先级重新分配
// Priorities 为空或长度不匹配时视为等优先级；全部剩余上游优先级为0时按等优先级分配
type PriorityMerge struct {
	Priorities []float64
}

// Distribute 实现 element.Distribution
func (m PriorityMerge) Distribute(sending, receiving []float64) ([]float64, []float64) {
	outflows := make([]float64, len(sending))
	if len(receiving) != 1 {
		return outflows, make([]float64, 0)
	}

	capacity := receiving[0]
	total := floats.Sum(sending)
	if total <= capacity {
		copy(outflows, sending)
		return outflows, []float64{total}
	}

	weights := m.weights(len(sending))
	active := make([]int, 0, len(sending))
	for i, s := range sending {
		if s > 0 {
			active = append(active, i)
		}
	}

	remaining := capacity
	for len(active) > 0 {
		sumP := 0.0
		for _, i := range active {
			sumP += weights[i]
		}
		if sumP == 0 {
			for _, i := range active {
				weights[i] = 1
			}
			sumP = float64(len(active))
		}

		next := active[:0:0]
		satisfied := 0.0
		for _, i := range active {
			share := remaining * weights[i] / sumP
			if sending[i] <= share {
				outflows[i] = sending[i]
				satisfied += sending[i]
			} else {
				next = append(next, i)
			}
		}
		if len(next) == len(active) {
			for _, i := range active {
				outflows[i] = remaining * weights[i] / sumP
			}
			break
		}
		remaining -= satisfied
		active = next
	}

	return outflows, []float64{math.Min(floats.Sum(outflows), capacity)}
}

func (m PriorityMerge) weights(n int) []float64 {
	weights := make([]float64, n)
	if len(m.Priorities) == n {
		copy(weights, m.Priorities)
		return weights
	}
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// Diverge 单进多出的 FIFO 分流策略
// q = min(s, min_j r_j/β_j)，inflow_j = β_j*q；任一下游受限时整个上游按比例受限
type Diverge struct {
	ratios []float64
}

// NewDiverge 创建分流策略，分流比必须非负且和为1
func NewDiverge(ratios []float64) (*Diverge, error) {
	if len(ratios) == 0 {
		return nil, &element.ConfigurationError{Entity: "diverge", Reason: "no split ratios"}
	}
	for j, r := range ratios {
		if r < 0 || math.IsNaN(r) {
			return nil, &element.ConfigurationError{Entity: "diverge", Reason: fmt.Sprintf("split ratio %d is %v", j, r)}
		}
	}
	if sum := floats.Sum(ratios); math.Abs(sum-1) > ratioTolerance {
		return nil, &element.ConfigurationError{Entity: "diverge", Reason: fmt.Sprintf("split ratios sum to %v, want 1", sum)}
	}
	d := &Diverge{ratios: make([]float64, len(ratios))}
	copy(d.ratios, ratios)
	return d, nil
}

// Ratios 返回分流比副本
func (d *Diverge) Ratios() []float64 {
	result := make([]float64, len(d.ratios))
	copy(result, d.ratios)
	return result
}

// Distribute 实现 element.Distribution
func (d *Diverge) Distribute(sending, receiving []float64) ([]float64, []float64) {
	inflows := make([]float64, len(d.ratios))
	if len(sending) != 1 || len(receiving) != len(d.ratios) {
		return make([]float64, 1), inflows
	}

	q := sending[0]
	for j, beta := range d.ratios {
		if beta > 0 {
			q = math.Min(q, receiving[j]/beta)
		}
	}
	for j, beta := range d.ratios {
		inflows[j] = math.Min(beta*q, receiving[j])
	}
	return []float64{floats.Sum(inflows)}, inflows
}
