package network

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/flow"
)

var diagram = flow.NewTriangular(1, 0, 50, 150)

func newCell(name string, den float64) *element.Cell {
	return element.NewCell(name, den, 1, 150, diagram, diagram)
}

func newSource(name string) *element.Source {
	return element.NewSource(name, 0, 1, diagram, flow.ConstantDemand(0))
}

// chainNetwork 构建 源 -> cells -> 终点
func chainNetwork(numCell int) (*Network, *Corridor) {
	net := New()
	source := newSource("source0")
	sink := element.NewSink("sink0", 0, nil)
	corridor := NewCorridor("", make([]float64, numCell), 1, 150, diagram, diagram, flow.MinRule)

	net.AddSource(source)
	corridor.AddToNetwork(net)
	net.AddSink(sink)
	corridor.AddFromNode(net, "node0", source, flow.MinRule)
	corridor.AddToNode(net, "nodeout", sink, flow.MinRule)
	return net, corridor
}

func expectConfigurationError(t *testing.T, err error, entity string) {
	t.Helper()
	var cfgErr *element.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Must be a ConfigurationError, but got %v", err)
	}
	if entity != "" && cfgErr.Entity != entity {
		t.Errorf("Error entity must be %s, but got %s (%v)", entity, cfgErr.Entity, cfgErr)
	}
}

func TestValidateChain(t *testing.T) {
	net, corridor := chainNetwork(5)
	if err := net.Validate(); err != nil {
		t.Fatalf("Chain must be valid, but got %v", err)
	}
	if !net.Validated() {
		t.Errorf("Network must be marked validated")
	}
	if len(net.Junctions()) != 6 {
		t.Errorf("Junction count must be %d, but got %d", 6, len(net.Junctions()))
	}
	if corridor.Cells()[1].Name() != "cell1" {
		t.Errorf("Cell name must be %s, but got %s", "cell1", corridor.Cells()[1].Name())
	}
	if n, err := net.Components(); err != nil || n != 1 {
		t.Errorf("Component count must be %d, but got %d (%v)", 1, n, err)
	}
	if unreachable, err := net.Unreachable(); err != nil || len(unreachable) != 0 {
		t.Errorf("All sources must reach a sink, but got %v (%v)", unreachable, err)
	}
}

func TestValidateDoubleOutflowWriter(t *testing.T) {
	net, corridor := chainNetwork(3)
	other := newCell("other", 0)
	net.AddCell(other)
	// cell0 的流出量由两个节点写入
	net.Connect("extra", []element.Upstream{corridor.First()}, []element.Downstream{other}, flow.MinRule)

	expectConfigurationError(t, net.Validate(), "cell0")
	if net.Validated() {
		t.Errorf("Invalid network must not be marked validated")
	}
}

func TestValidateMissingWriter(t *testing.T) {
	net, _ := chainNetwork(3)
	// 孤立单元格没有任何节点写入流入量
	net.AddCell(newCell("orphan", 0))
	expectConfigurationError(t, net.Validate(), "orphan")
}

func TestValidateSourceTwoJunctions(t *testing.T) {
	net := New()
	source := newSource("source0")
	sink := element.NewSink("sink0", 0, nil)
	net.AddSource(source)
	net.AddSink(sink)
	net.Connect("node0", []element.Upstream{source}, []element.Downstream{sink}, flow.MinRule)
	net.Connect("node1", []element.Upstream{source}, []element.Downstream{sink}, flow.MinRule)

	expectConfigurationError(t, net.Validate(), "")
}

func TestValidateDuplicateNames(t *testing.T) {
	net, _ := chainNetwork(2)
	net.AddSink(element.NewSink("cell1", 0, nil))
	expectConfigurationError(t, net.Validate(), "cell1")
}

func TestValidateUnregistered(t *testing.T) {
	net, corridor := chainNetwork(2)
	stray := newCell("stray", 0)
	net.Connect("bad", []element.Upstream{stray}, []element.Downstream{corridor.Last()}, flow.MinRule)
	expectConfigurationError(t, net.Validate(), "bad")
}

func TestValidateDuplicateInJunction(t *testing.T) {
	net := New()
	a := newCell("a", 0)
	sink := element.NewSink("sink0", 0, nil)
	net.AddCell(a)
	net.AddSink(sink)
	net.Connect("node", []element.Upstream{a, a}, []element.Downstream{sink}, flow.PriorityMerge{})
	expectConfigurationError(t, net.Validate(), "node")
}

func TestValidateMissingFunctions(t *testing.T) {
	net, _ := chainNetwork(2)
	broken := element.NewCell("broken", 0, 1, 150, nil, diagram)
	net.AddCell(broken)
	expectConfigurationError(t, net.Validate(), "broken")

	net, _ = chainNetwork(2)
	net.AddJunction(element.NewJunction("empty", nil, nil, flow.MinRule))
	expectConfigurationError(t, net.Validate(), "empty")
}

func TestModificationResetsValidation(t *testing.T) {
	net, _ := chainNetwork(2)
	if err := net.Validate(); err != nil {
		t.Fatal(err)
	}
	net.AddCell(newCell("late", 0))
	if net.Validated() {
		t.Errorf("Adding entities must reset validation")
	}
}

func TestValidateDoubleInflowWriter(t *testing.T) {
	net, _ := chainNetwork(2)

	lonely := newSource("lonely")
	a := newCell("a", 0)
	b := newCell("b", 0)
	c := newCell("c", 0)
	net.AddSource(lonely)
	net.AddCell(a, b, c)
	net.Connect("l0", []element.Upstream{lonely}, []element.Downstream{a}, flow.MinRule)
	net.Connect("l1", []element.Upstream{a}, []element.Downstream{b}, flow.MinRule)
	net.Connect("l2", []element.Upstream{c}, []element.Downstream{b}, flow.MinRule)
	net.Connect("l3", []element.Upstream{b}, []element.Downstream{c}, flow.MinRule)

	// b 的流入量由 l1 和 l2 写入
	expectConfigurationError(t, net.Validate(), "b")
}

func TestComponentsAndUnreachable(t *testing.T) {
	net, _ := chainNetwork(2)

	// 第二个子网没有终点：lonely -> a -> l1 -> b，b 的流出量又回到 l1
	lonely := newSource("lonely")
	a := newCell("a", 0)
	b := newCell("b", 0)
	net.AddSource(lonely)
	net.AddCell(a, b)
	net.Connect("l0", []element.Upstream{lonely}, []element.Downstream{a}, flow.PriorityMerge{})
	net.AddJunction(element.NewJunction("l1", []element.Upstream{a, b}, []element.Downstream{b}, flow.PriorityMerge{}))

	if err := net.Validate(); err != nil {
		t.Fatalf("Network must be valid, but got %v", err)
	}
	if n, _ := net.Components(); n != 2 {
		t.Errorf("Component count must be %d, but got %d", 2, n)
	}
	unreachable, _ := net.Unreachable()
	if len(unreachable) != 1 || unreachable[0] != "lonely" {
		t.Errorf("Unreachable sources must be %v, but got %v", []string{"lonely"}, unreachable)
	}
}

func TestEntityLookup(t *testing.T) {
	net, _ := chainNetwork(3)
	e, ok := net.Entity("cell2")
	if !ok || e.Kind() != element.KindCell {
		t.Errorf("cell2 must be found as a cell, but got %v %v", e, ok)
	}
	if _, ok := net.Entity("nope"); ok {
		t.Errorf("Unknown entity must not be found")
	}
	entities := net.Entities()
	if entities[0].Kind() != element.KindSource || entities[len(entities)-1].Kind() != element.KindSink {
		t.Errorf("Entities must be ordered source, cells, sink")
	}
}

func TestCorridorReport(t *testing.T) {
	corridor := NewCorridor("r", []float64{10, 20, 30}, 1, 150, diagram, diagram, flow.MinRule, element.WithLength(2))
	n, vehicles, speed := corridor.Report()
	if n != 3 || vehicles != 120 || speed != 1 {
		t.Errorf("Report must be (%d, %v, %v), but got (%d, %v, %v)", 3, 120.0, 1.0, n, vehicles, speed)
	}
	if _, ok := corridor.GetCell(3); ok {
		t.Errorf("Out of range cell must not be found")
	}
	if c, _ := corridor.GetCell(1); c.Name() != "rcell1" {
		t.Errorf("Cell name must be %s, but got %s", "rcell1", c.Name())
	}
}
