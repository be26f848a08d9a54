// Package network 组织实体与节点，并在运行前校验路网拓扑
package network

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Network 保存路网中全部源、单元格、终点和节点，顺序即为步进顺序
type Network struct {
	sources   []*element.Source
	cells     []*element.Cell
	sinks     []*element.Sink
	junctions []*element.Junction

	graph     *simple.DirectedGraph
	validated bool

	// elapsed 是已经执行的时间步数，多次运行时历史记录的步号连续
	elapsed int
}

// New 创建一个空路网
func New() *Network {
	return &Network{}
}

// AddSource 添加源
func (net *Network) AddSource(sources ...*element.Source) {
	net.sources = append(net.sources, sources...)
	net.validated = false
}

// AddCell 添加单元格
func (net *Network) AddCell(cells ...*element.Cell) {
	net.cells = append(net.cells, cells...)
	net.validated = false
}

// AddSink 添加终点
func (net *Network) AddSink(sinks ...*element.Sink) {
	net.sinks = append(net.sinks, sinks...)
	net.validated = false
}

// AddJunction 添加节点
func (net *Network) AddJunction(junctions ...*element.Junction) {
	net.junctions = append(net.junctions, junctions...)
	net.validated = false
}

// Connect 创建连接 from 与 to 的节点并加入路网
func (net *Network) Connect(name string, from []element.Upstream, to []element.Downstream, policy element.Distribution) *element.Junction {
	junction := element.NewJunction(name, from, to, policy)
	net.AddJunction(junction)
	return junction
}

// Sources 返回源列表副本
func (net *Network) Sources() []*element.Source {
	result := make([]*element.Source, len(net.sources))
	copy(result, net.sources)
	return result
}

// Cells 返回单元格列表副本
func (net *Network) Cells() []*element.Cell {
	result := make([]*element.Cell, len(net.cells))
	copy(result, net.cells)
	return result
}

// Sinks 返回终点列表副本
func (net *Network) Sinks() []*element.Sink {
	result := make([]*element.Sink, len(net.sinks))
	copy(result, net.sinks)
	return result
}

// Junctions 返回节点列表副本
func (net *Network) Junctions() []*element.Junction {
	result := make([]*element.Junction, len(net.junctions))
	copy(result, net.junctions)
	return result
}

// Entities 按 源、单元格、终点 的顺序返回全部实体
func (net *Network) Entities() []element.Entity {
	entities := make([]element.Entity, 0, len(net.sources)+len(net.cells)+len(net.sinks))
	for _, s := range net.sources {
		entities = append(entities, s)
	}
	for _, c := range net.cells {
		entities = append(entities, c)
	}
	for _, s := range net.sinks {
		entities = append(entities, s)
	}
	return entities
}

// Entity 按名称查找实体
func (net *Network) Entity(name string) (element.Entity, bool) {
	return lo.Find(net.Entities(), func(e element.Entity) bool {
		return e.Name() == name
	})
}

// Validate 在任何步进之前检查路网配置：
//   - 实体和节点名称唯一、注入函数齐全
//   - 节点引用的实体都已注册到路网
//   - 共享边独占：每个实体的流出量恰好由一个节点写入，流入量恰好由一个节点写入
func (net *Network) Validate() error {
	names := make([]string, 0, len(net.sources)+len(net.cells)+len(net.sinks)+len(net.junctions))
	for _, e := range net.Entities() {
		names = append(names, e.Name())
	}
	for _, j := range net.junctions {
		names = append(names, j.Name())
	}
	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return &element.ConfigurationError{Entity: dup[0], Reason: "duplicate name"}
	}

	for _, s := range net.sources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, c := range net.cells {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, j := range net.junctions {
		if err := j.Validate(); err != nil {
			return err
		}
	}

	g, err := net.buildGraph()
	if err != nil {
		return err
	}

	for _, s := range net.sources {
		if err := checkDegree(g, s, 0, 1); err != nil {
			return err
		}
	}
	for _, c := range net.cells {
		if err := checkDegree(g, c, 1, 1); err != nil {
			return err
		}
	}
	for _, s := range net.sinks {
		if err := checkDegree(g, s, 1, 0); err != nil {
			return err
		}
	}

	net.graph = g
	net.validated = true
	return nil
}

// Validated 报告路网在最后一次修改后是否已通过校验
func (net *Network) Validated() bool {
	return net.validated
}

// buildGraph 构建二部有向图：上游实体 -> 节点 -> 下游实体
func (net *Network) buildGraph() (*simple.DirectedGraph, error) {
	g := simple.NewDirectedGraph()
	registered := make(map[int64]element.Entity, len(net.sources)+len(net.cells)+len(net.sinks))
	for _, e := range net.Entities() {
		registered[e.ID()] = e
		g.AddNode(e)
	}

	for _, j := range net.junctions {
		g.AddNode(j)

		incoming := j.Incoming()
		if dup := lo.FindDuplicatesBy(incoming, func(e element.Upstream) int64 { return e.ID() }); len(dup) > 0 {
			return nil, &element.ConfigurationError{Entity: j.Name(), Reason: fmt.Sprintf("entity %s listed twice as incoming", dup[0].Name())}
		}
		for _, e := range incoming {
			if _, ok := registered[e.ID()]; !ok {
				return nil, &element.ConfigurationError{Entity: j.Name(), Reason: fmt.Sprintf("incoming entity %s is not registered", e.Name())}
			}
			g.SetEdge(simple.Edge{F: e, T: j})
		}

		outgoing := j.Outgoing()
		if dup := lo.FindDuplicatesBy(outgoing, func(e element.Downstream) int64 { return e.ID() }); len(dup) > 0 {
			return nil, &element.ConfigurationError{Entity: j.Name(), Reason: fmt.Sprintf("entity %s listed twice as outgoing", dup[0].Name())}
		}
		for _, e := range outgoing {
			if _, ok := registered[e.ID()]; !ok {
				return nil, &element.ConfigurationError{Entity: j.Name(), Reason: fmt.Sprintf("outgoing entity %s is not registered", e.Name())}
			}
			g.SetEdge(simple.Edge{F: j, T: e})
		}
	}
	return g, nil
}

// checkDegree 检查实体的入度（写入流入量的节点数）和出度（写入流出量的节点数）
func checkDegree(g *simple.DirectedGraph, e element.Entity, wantIn, wantOut int) error {
	in := g.To(e.ID()).Len()
	out := g.From(e.ID()).Len()
	if in != wantIn {
		return &element.ConfigurationError{
			Entity: e.Name(),
			Reason: fmt.Sprintf("%s inflow is written by %d junctions, want %d", e.Kind(), in, wantIn),
		}
	}
	if out != wantOut {
		return &element.ConfigurationError{
			Entity: e.Name(),
			Reason: fmt.Sprintf("%s outflow is written by %d junctions, want %d", e.Kind(), out, wantOut),
		}
	}
	return nil
}

// Elapsed 返回已经执行的时间步数
func (net *Network) Elapsed() int {
	return net.elapsed
}

// Tick 记录完成了一个时间步，由驱动在第三阶段之后调用
func (net *Network) Tick() {
	net.elapsed++
}

// Graph 返回校验时构建的拓扑图，未校验时为 nil
func (net *Network) Graph() *simple.DirectedGraph {
	return net.graph
}

// Components 返回路网的弱连通分量数
func (net *Network) Components() (int, error) {
	if err := net.ensureValidated(); err != nil {
		return 0, err
	}
	return len(topo.ConnectedComponents(graph.Undirect{G: net.graph})), nil
}

// Unreachable 返回无法到达任何终点的源名称
func (net *Network) Unreachable() ([]string, error) {
	if err := net.ensureValidated(); err != nil {
		return nil, err
	}
	var result []string
	for _, s := range net.sources {
		reachable := lo.SomeBy(net.sinks, func(sink *element.Sink) bool {
			return topo.PathExistsIn(net.graph, s, sink)
		})
		if !reachable {
			result = append(result, s.Name())
		}
	}
	return result, nil
}

func (net *Network) ensureValidated() error {
	if net.validated {
		return nil
	}
	return errors.Wrap(net.Validate(), "network validation failed")
}

// Vehicles 返回 源排队、路上、已到达 的车辆总数
func (net *Network) Vehicles() (queued, onRoad, arrived float64) {
	for _, s := range net.sources {
		queued += s.Vehicles()
	}
	for _, c := range net.cells {
		onRoad += c.Vehicles()
	}
	for _, s := range net.sinks {
		arrived += s.Vehicles()
	}
	return queued, onRoad, arrived
}
