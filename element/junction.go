package element

import (
	"github.com/pkg/errors"
)

// Junction 表示连接上游实体与下游实体的节点（Node）
// 节点不拥有实体状态，只读取发送/接收能力并写回实际流出/流入量
type Junction struct {
	id       int64
	name     string
	incoming []Upstream
	outgoing []Downstream
	policy   Distribution

	// 每步的临时状态
	sendingFlows   []float64
	receivingFlows []float64
	outflows       []float64
	inflows        []float64
}

// NewJunction 创建一个新的节点
func NewJunction(name string, incoming []Upstream, outgoing []Downstream, policy Distribution) *Junction {
	in := make([]Upstream, len(incoming))
	copy(in, incoming)
	out := make([]Downstream, len(outgoing))
	copy(out, outgoing)

	return &Junction{
		id:             getNextEntityID(),
		name:           name,
		incoming:       in,
		outgoing:       out,
		policy:         policy,
		sendingFlows:   make([]float64, len(in)),
		receivingFlows: make([]float64, len(out)),
	}
}

// ID 返回节点ID
func (n *Junction) ID() int64 {
	return n.id
}

// Name 返回节点名称
func (n *Junction) Name() string {
	return n.name
}

// Incoming 返回上游实体列表副本
func (n *Junction) Incoming() []Upstream {
	result := make([]Upstream, len(n.incoming))
	copy(result, n.incoming)
	return result
}

// Outgoing 返回下游实体列表副本
func (n *Junction) Outgoing() []Downstream {
	result := make([]Downstream, len(n.outgoing))
	copy(result, n.outgoing)
	return result
}

// SendingFlows 返回最近一次解析时收集的发送流量
func (n *Junction) SendingFlows() []float64 { return cloneFloats(n.sendingFlows) }

// ReceivingFlows 返回最近一次解析时收集的接收流量
func (n *Junction) ReceivingFlows() []float64 { return cloneFloats(n.receivingFlows) }

// Outflows 返回最近一次解析得到的流出量
func (n *Junction) Outflows() []float64 { return cloneFloats(n.outflows) }

// Inflows 返回最近一次解析得到的流入量
func (n *Junction) Inflows() []float64 { return cloneFloats(n.inflows) }

// Validate 检查节点的静态配置
func (n *Junction) Validate() error {
	if n.policy == nil {
		return configurationError(n.name, "junction has no distribution function")
	}
	if len(n.incoming) == 0 {
		return configurationError(n.name, "junction has no incoming entity")
	}
	if len(n.outgoing) == 0 {
		return configurationError(n.name, "junction has no outgoing entity")
	}
	for i, e := range n.incoming {
		if e == nil {
			return configurationError(n.name, "incoming entity %d is nil", i)
		}
	}
	for j, e := range n.outgoing {
		if e == nil {
			return configurationError(n.name, "outgoing entity %d is nil", j)
		}
	}
	return nil
}

// Resolve 执行一次合流/分流解析：
//  1. 收集上游发送流量和下游接收流量
//  2. 调用分配策略
//  3. 将流出量写回上游、流入量写回下游
//
// 分配策略返回的向量长度与实体列表不一致时不写回任何值
func (n *Junction) Resolve(step int) error {
	for i, e := range n.incoming {
		n.sendingFlows[i] = e.SendingFlow()
	}
	for j, e := range n.outgoing {
		n.receivingFlows[j] = e.ReceivingFlow()
	}

	outflows, inflows := n.policy.Distribute(cloneFloats(n.sendingFlows), cloneFloats(n.receivingFlows))
	if len(outflows) != len(n.incoming) {
		return configurationError(n.name, "distribution returned %d outflows for %d incoming entities", len(outflows), len(n.incoming))
	}
	if len(inflows) != len(n.outgoing) {
		return configurationError(n.name, "distribution returned %d inflows for %d outgoing entities", len(inflows), len(n.outgoing))
	}
	n.outflows = outflows
	n.inflows = inflows

	for i, e := range n.incoming {
		if err := e.SetOutflow(step, outflows[i]); err != nil {
			return errors.Wrapf(err, "junction %s", n.name)
		}
	}
	for j, e := range n.outgoing {
		if err := e.SetInflow(step, inflows[j]); err != nil {
			return errors.Wrapf(err, "junction %s", n.name)
		}
	}
	return nil
}

func cloneFloats(values []float64) []float64 {
	if values == nil {
		return nil
	}
	result := make([]float64, len(values))
	copy(result, values)
	return result
}
