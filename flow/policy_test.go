package flow

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"gonum.org/v1/gonum/floats"
)

const eps = 1e-9

func TestMinRule(t *testing.T) {
	cases := []struct {
		sending, receiving, want float64
	}{
		{50, 50, 50},
		{30, 50, 30},
		{50, 10, 10},
		{0, 50, 0},
		{20, math.Inf(1), 20},
	}
	for _, c := range cases {
		out, in := MinRule.Distribute([]float64{c.sending}, []float64{c.receiving})
		if out[0] != c.want || in[0] != c.want {
			t.Errorf("min(%v, %v) must be %v, but got outflow %v inflow %v", c.sending, c.receiving, c.want, out[0], in[0])
		}
	}

	out, _ := MinRule.Distribute([]float64{1, 2}, []float64{3})
	if len(out) == 2 {
		t.Errorf("MinRule on 2x1 input must not return a valid outflow vector")
	}
}

func TestPriorityMergeUncongested(t *testing.T) {
	out, in := PriorityMerge{}.Distribute([]float64{10, 15}, []float64{50})
	if out[0] != 10 || out[1] != 15 || in[0] != 25 {
		t.Errorf("All demand must pass, but got outflows %v inflow %v", out, in)
	}
}

func TestPriorityMergeEqualShares(t *testing.T) {
	out, in := PriorityMerge{}.Distribute([]float64{40, 40}, []float64{50})
	if out[0] != 25 || out[1] != 25 {
		t.Errorf("Equal priorities must split evenly, but got %v", out)
	}
	if in[0] != 50 {
		t.Errorf("Inflow must be %v, but got %v", 50.0, in[0])
	}
}

func TestPriorityMergeWaterFilling(t *testing.T) {
	// 份额 [25, 25]，第一个上游只需要10，剩余40留给第二个上游
	out, in := PriorityMerge{}.Distribute([]float64{10, 45}, []float64{50})
	if out[0] != 10 || out[1] != 40 {
		t.Errorf("Outflows must be %v, but got %v", []float64{10, 40}, out)
	}
	if in[0] != 50 {
		t.Errorf("Inflow must be %v, but got %v", 50.0, in[0])
	}
}

func TestPriorityMergeWeighted(t *testing.T) {
	m := PriorityMerge{Priorities: []float64{3, 1}}
	out, in := m.Distribute([]float64{50, 50}, []float64{40})
	if math.Abs(out[0]-30) > eps || math.Abs(out[1]-10) > eps {
		t.Errorf("Outflows must be %v, but got %v", []float64{30, 10}, out)
	}
	if math.Abs(floats.Sum(out)-in[0]) > eps {
		t.Errorf("Total outflow %v must equal inflow %v", floats.Sum(out), in[0])
	}
}

func TestPriorityMergeConservation(t *testing.T) {
	sending := []float64{12.5, 0, 33.3, 7.1}
	receiving := []float64{30}
	m := PriorityMerge{Priorities: []float64{1, 5, 2, 0.5}}
	out, in := m.Distribute(sending, receiving)
	for i := range sending {
		if out[i] < 0 || out[i] > sending[i]+eps {
			t.Errorf("Outflow %d must be within [0, %v], but got %v", i, sending[i], out[i])
		}
	}
	if in[0] > receiving[0]+eps {
		t.Errorf("Inflow must not exceed %v, but got %v", receiving[0], in[0])
	}
	if math.Abs(floats.Sum(out)-in[0]) > eps {
		t.Errorf("Total outflow %v must equal inflow %v", floats.Sum(out), in[0])
	}
}

func TestNewDivergeErrors(t *testing.T) {
	cases := [][]float64{
		nil,
		{0.5, 0.6},
		{1.2, -0.2},
		{math.NaN(), 1},
	}
	for _, ratios := range cases {
		_, err := NewDiverge(ratios)
		var cfgErr *element.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Ratios %v must be rejected, but got %v", ratios, err)
		}
	}

	if _, err := NewDiverge([]float64{0.1, 0.2, 0.7}); err != nil {
		t.Errorf("Ratios summing to 1 must be accepted, but got %v", err)
	}
}

func TestDivergeFIFO(t *testing.T) {
	d, err := NewDiverge([]float64{0.75, 0.25})
	if err != nil {
		t.Fatal(err)
	}

	out, in := d.Distribute([]float64{40}, []float64{50, 50})
	if out[0] != 40 || in[0] != 30 || in[1] != 10 {
		t.Errorf("Free flow must split by ratio, but got outflow %v inflows %v", out, in)
	}

	// 第二个下游只能接收5，整个上游被限制为 5/0.25 = 20
	out, in = d.Distribute([]float64{40}, []float64{50, 5})
	if out[0] != 20 || in[0] != 15 || in[1] != 5 {
		t.Errorf("Blocked branch must hold the whole upstream, but got outflow %v inflows %v", out, in)
	}

	if r := d.Ratios(); r[0] != 0.75 || r[1] != 0.25 {
		t.Errorf("Ratios must be %v, but got %v", []float64{0.75, 0.25}, r)
	}
}

func TestDivergeZeroRatio(t *testing.T) {
	d, err := NewDiverge([]float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	out, in := d.Distribute([]float64{30}, []float64{50, 0})
	if out[0] != 30 || in[0] != 30 || in[1] != 0 {
		t.Errorf("Zero-ratio branch must not constrain, but got outflow %v inflows %v", out, in)
	}
}
