package scenario

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/config"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/flow"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/network"
	"gonum.org/v1/gonum/floats"
)

// preset 是场景自带的基本图参数和初始条件，配置中的非零值会覆盖它们
type preset struct {
	maxSpeed   float64
	waveSpeed  float64
	maxFlow    float64
	maxDensity float64
	numCell    int
	// demand 是配置未给出需求时每个源的恒定需求
	demand float64
	// densities 生成 n 个单元格的初始密度
	densities func(n int, maxDensity float64) []float64
}

// setup 是解析配置后的场景参数
type setup struct {
	diagram   flow.Triangular
	densities []float64
	demand    element.Demand
	opts      []element.Option
}

func init() {
	Register(Scenario{
		Name:        "drain",
		Description: "3 cells draining a 100-vehicle platoon in free flow",
		Steps:       5,
		Build: chain(preset{
			maxSpeed: 1, maxFlow: 50, maxDensity: 150, numCell: 3,
			densities: func(n int, _ float64) []float64 {
				den := make([]float64, n)
				den[0] = 100
				return den
			},
		}),
	})
	Register(Scenario{
		Name:        "shockwave",
		Description: "151 cells with density falling linearly from jam to empty",
		Steps:       20,
		Build: chain(preset{
			maxSpeed: 1, maxFlow: 50, maxDensity: 150, numCell: 151,
			densities: func(n int, maxDensity float64) []float64 {
				if n == 1 {
					return []float64{maxDensity}
				}
				return floats.Span(make([]float64, n), maxDensity, 0)
			},
		}),
	})
	Register(Scenario{
		Name:        "queue",
		Description: "101 cells, moderate traffic running into a jammed downstream half",
		Steps:       32,
		Build: chain(preset{
			maxSpeed: 1, waveSpeed: 0.25, maxFlow: 50, maxDensity: 250, numCell: 101,
			densities: func(n int, maxDensity float64) []float64 {
				den := make([]float64, n)
				for i := range den {
					if i < n/2 {
						den[i] = 70
					} else {
						den[i] = maxDensity
					}
				}
				return den
			},
		}),
	})
	Register(Scenario{
		Name:        "jam",
		Description: "101 cells in light traffic with a 3-cell jam in the middle",
		Steps:       32,
		Build: chain(preset{
			maxSpeed: 1, waveSpeed: 0.25, maxFlow: 50, maxDensity: 250, numCell: 101,
			densities: func(n int, maxDensity float64) []float64 {
				den := make([]float64, n)
				for i := range den {
					den[i] = 25
				}
				for i := n/2 - 1; i <= n/2+1; i++ {
					if i >= 0 && i < n {
						den[i] = maxDensity
					}
				}
				return den
			},
		}),
	})
	Register(Scenario{
		Name:        "merge",
		Description: "two 10-cell feeders merging into one corridor by priority",
		Steps:       60,
		Build:       buildMerge,
	})
	Register(Scenario{
		Name:        "diverge",
		Description: "one corridor split into two branches, one with a bounded exit",
		Steps:       60,
		Build:       buildDiverge,
	})
	Register(Scenario{
		Name:        "signal",
		Description: "a corridor with a fixed-cycle signal in the middle",
		Steps:       60,
		Build:       buildSignal,
	})
}

var flowPreset = preset{
	maxSpeed: 1, maxFlow: 50, maxDensity: 150, numCell: 20,
	densities: func(n int, _ float64) []float64 { return make([]float64, n) },
}

// resolve 用配置覆盖场景预设，并检查参数范围
func resolve(cfg *config.Config, p preset) (*setup, error) {
	sc := cfg.Scenario
	v := pick(sc.MaxSpeed, p.maxSpeed)
	w := pick(sc.WaveSpeed, p.waveSpeed)
	q := pick(sc.MaxFlow, p.maxFlow)
	k := pick(sc.MaxDensity, p.maxDensity)
	if v <= 0 || q <= 0 || k <= 0 || w < 0 {
		return nil, errors.Errorf("invalid fundamental diagram: maxSpeed=%v waveSpeed=%v maxFlow=%v maxDensity=%v", v, w, q, k)
	}

	n := p.numCell
	if sc.NumCell > 0 {
		n = sc.NumCell
	}
	densities := sc.InitialDensities
	if len(densities) == 0 {
		densities = p.densities(n, k)
	} else if sc.NumCell > 0 && len(densities) != sc.NumCell {
		return nil, errors.Errorf("%d initial densities given for %d cells", len(densities), sc.NumCell)
	}
	for i, den := range densities {
		if den < 0 || den > k || math.IsNaN(den) {
			return nil, errors.Errorf("initial density %v of cell %d out of range [0, %v]", den, i, k)
		}
	}

	demandCfg := cfg.Demand
	if demandCfg.Constant == 0 && demandCfg.ProfileFile == "" {
		demandCfg.Constant = p.demand
	}
	demand, err := demandFromConfig(demandCfg)
	if err != nil {
		return nil, err
	}

	return &setup{
		diagram:   flow.NewTriangular(v, w, q, k),
		densities: densities,
		demand:    demand,
		opts: []element.Option{
			element.WithLength(cfg.Simulation.CellLength),
			element.WithTimeStep(cfg.Simulation.TimeStep),
			element.WithRetention(cfg.History),
		},
	}, nil
}

func pick(value, fallback float64) float64 {
	if value != 0 {
		return value
	}
	return fallback
}

func (st *setup) corridor(name string, densities []float64) *network.Corridor {
	d := st.diagram
	return network.NewCorridor(name, densities, d.MaxSpeed, d.MaxDensity, d, d, flow.MinRule, st.opts...)
}

func (st *setup) source(name string) *element.Source {
	return element.NewSource(name, 0, st.diagram.MaxSpeed, st.diagram, st.demand, st.opts...)
}

// chain 构建 源 -> n 个单元格 -> 终点 的单一路段
// 节点命名为 node0（源到第一个单元格）到 node<n>（最后一个单元格到终点）
func chain(p preset) Builder {
	return func(cfg *config.Config) (*network.Network, error) {
		st, err := resolve(cfg, p)
		if err != nil {
			return nil, err
		}

		net := network.New()
		source := st.source("source0")
		sink := element.NewSink("sink0", 0, element.Unbounded, st.opts...)
		corridor := st.corridor("", st.densities)

		net.AddSource(source)
		corridor.AddToNetwork(net)
		net.AddSink(sink)
		corridor.AddFromNode(net, "node0", source, flow.MinRule)
		corridor.AddToNode(net, fmt.Sprintf("node%d", corridor.Length()), sink, flow.MinRule)
		return net, nil
	}
}

func buildMerge(cfg *config.Config) (*network.Network, error) {
	p := flowPreset
	p.demand = 30
	st, err := resolve(cfg, p)
	if err != nil {
		return nil, err
	}

	net := network.New()
	feeders := []*network.Corridor{
		st.corridor("a", make([]float64, 10)),
		st.corridor("b", make([]float64, 10)),
	}
	trunk := st.corridor("main", st.densities)
	sink := element.NewSink("sink0", 0, element.Unbounded, st.opts...)

	upstream := make([]element.Upstream, len(feeders))
	for i, feeder := range feeders {
		source := st.source(fmt.Sprintf("source%d", i))
		net.AddSource(source)
		feeder.AddToNetwork(net)
		feeder.AddFromNode(net, fmt.Sprintf("%snode0", feeder.Name()), source, flow.MinRule)
		upstream[i] = feeder.Last()
	}
	trunk.AddToNetwork(net)
	net.AddSink(sink)

	net.Connect("merge", upstream, []element.Downstream{trunk.First()}, flow.PriorityMerge{Priorities: cfg.Scenario.MergePriorities})
	trunk.AddToNode(net, "mainnodeout", sink, flow.MinRule)
	return net, nil
}

func buildDiverge(cfg *config.Config) (*network.Network, error) {
	p := flowPreset
	p.demand = 40
	st, err := resolve(cfg, p)
	if err != nil {
		return nil, err
	}

	ratios := cfg.Scenario.SplitRatios
	if len(ratios) == 0 {
		ratios = []float64{0.7, 0.3}
	}
	diverge, err := flow.NewDiverge(ratios)
	if err != nil {
		return nil, err
	}

	net := network.New()
	source := st.source("source0")
	trunk := st.corridor("main", st.densities)
	net.AddSource(source)
	trunk.AddToNetwork(net)
	trunk.AddFromNode(net, "mainnode0", source, flow.MinRule)

	// 最后一个分支的出口通行能力受限，用于产生回溢
	downstream := make([]element.Downstream, len(ratios))
	for j := range ratios {
		branch := st.corridor(fmt.Sprintf("branch%d", j), make([]float64, 10))
		var receiving element.ReceivingFlow = element.Unbounded
		if j == len(ratios)-1 {
			receiving = element.ReceivingFlowFunc(func(float64) float64 { return 10 })
		}
		sink := element.NewSink(fmt.Sprintf("sink%d", j), 0, receiving, st.opts...)

		branch.AddToNetwork(net)
		net.AddSink(sink)
		branch.AddToNode(net, fmt.Sprintf("%snodeout", branch.Name()), sink, flow.MinRule)
		downstream[j] = branch.First()
	}

	net.Connect("diverge", []element.Upstream{trunk.Last()}, downstream, diverge)
	return net, nil
}

func buildSignal(cfg *config.Config) (*network.Network, error) {
	p := flowPreset
	p.demand = 30
	st, err := resolve(cfg, p)
	if err != nil {
		return nil, err
	}

	interval := cfg.Scenario.SignalInterval
	green := cfg.Scenario.SignalGreen
	if interval <= 0 || green[0] < 0 || green[1] <= green[0] || green[1] > interval {
		return nil, errors.Errorf("invalid signal timing: interval=%d green=%v", interval, green)
	}
	if len(st.densities) < 2 {
		return nil, errors.New("signal scenario needs at least 2 cells")
	}

	half := len(st.densities) / 2
	up := st.corridor("up", st.densities[:half])
	down := st.corridor("down", st.densities[half:])
	source := st.source("source0")
	sink := element.NewSink("sink0", 0, element.Unbounded, st.opts...)

	net := network.New()
	net.AddSource(source)
	up.AddToNetwork(net)
	down.AddToNetwork(net)
	net.AddSink(sink)

	up.AddFromNode(net, "upnode0", source, flow.MinRule)
	light := flow.NewSignal(flow.MinRule, interval, green)
	if err := light.SetOffset(cfg.Scenario.SignalOffset); err != nil {
		return nil, err
	}
	if scale := cfg.Scenario.SignalScale; scale != 0 && scale != 1 {
		if err := light.Rescale(scale); err != nil {
			return nil, err
		}
	}
	net.Connect("signal", []element.Upstream{up.Last()}, []element.Downstream{down.First()}, light)
	down.AddToNode(net, "downnodeout", sink, flow.MinRule)
	return net, nil
}
