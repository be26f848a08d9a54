package network

import (
	"fmt"

	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
)

// Corridor 表示由多个单元格串联而成的路段，相邻单元格之间用最小值规则节点连接
type Corridor struct {
	name      string
	cells     []*element.Cell
	junctions []*element.Junction
}

// NewCorridor 创建一个新的路段
// 单元格按 densities 的顺序从上游到下游排列，名称为 "<name>cell<i>"，内部节点名称为 "<name>node<i+1>"
func NewCorridor(name string, densities []float64, maxSpeed, maxDensity float64, sending element.SendingFlow, receiving element.ReceivingFlow, policy element.Distribution, opts ...element.Option) *Corridor {
	if len(densities) < 1 {
		panic("corridor needs at least one cell")
	}

	// 预分配容量以提高性能
	cells := make([]*element.Cell, len(densities))
	for i, den := range densities {
		cells[i] = element.NewCell(fmt.Sprintf("%scell%d", name, i), den, maxSpeed, maxDensity, sending, receiving, opts...)
	}

	junctions := make([]*element.Junction, 0, len(cells)-1)
	for i := 0; i < len(cells)-1; i++ {
		junctions = append(junctions, element.NewJunction(
			fmt.Sprintf("%snode%d", name, i+1),
			[]element.Upstream{cells[i]},
			[]element.Downstream{cells[i+1]},
			policy,
		))
	}

	return &Corridor{
		name:      name,
		cells:     cells,
		junctions: junctions,
	}
}

// Name 返回路段名称
func (c *Corridor) Name() string {
	return c.name
}

// Cells 返回路段包含的所有单元格
func (c *Corridor) Cells() []*element.Cell {
	// 返回副本以避免外部修改
	result := make([]*element.Cell, len(c.cells))
	copy(result, c.cells)
	return result
}

// Length 返回路段长度（单元格数量）
func (c *Corridor) Length() int {
	return len(c.cells)
}

// First 返回路段起点单元格
func (c *Corridor) First() *element.Cell {
	return c.cells[0]
}

// Last 返回路段终点单元格
func (c *Corridor) Last() *element.Cell {
	return c.cells[len(c.cells)-1]
}

// GetCell 返回路段中指定索引的单元格
func (c *Corridor) GetCell(index int) (*element.Cell, bool) {
	if index < 0 || index >= len(c.cells) {
		return nil, false
	}
	return c.cells[index], true
}

// AddToNetwork 将路段的单元格和内部节点加入路网
func (c *Corridor) AddToNetwork(net *Network) {
	net.AddCell(c.cells...)
	net.AddJunction(c.junctions...)
}

// AddFromNode 用节点将 upstream 连接到路段起点
func (c *Corridor) AddFromNode(net *Network, name string, upstream element.Upstream, policy element.Distribution) *element.Junction {
	return net.Connect(name, []element.Upstream{upstream}, []element.Downstream{c.First()}, policy)
}

// AddToNode 用节点将路段终点连接到 downstream
func (c *Corridor) AddToNode(net *Network, name string, downstream element.Downstream, policy element.Distribution) *element.Junction {
	return net.Connect(name, []element.Upstream{c.Last()}, []element.Downstream{downstream}, policy)
}

// Report 报告路段的状态信息
// 返回：单元格数量，路段车辆数，车辆加权平均速度
func (c *Corridor) Report() (int, float64, float64) {
	var vehicles, weighted float64
	for _, cell := range c.cells {
		v := cell.Vehicles()
		vehicles += v
		weighted += v * cell.Speed()
	}

	var averageSpeed float64
	if vehicles > 0 {
		averageSpeed = weighted / vehicles
	}
	return len(c.cells), vehicles, averageSpeed
}
