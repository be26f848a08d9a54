package element

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

// 测试用的三角形基本图 v=1, K=150, Q=50
var (
	testSending = SendingFlowFunc(func(den float64) float64 {
		return math.Min(den, 50)
	})
	testReceiving = ReceivingFlowFunc(func(den float64) float64 {
		return math.Max(0, math.Min(150-den, 50))
	})
)

func computeFlows(t *testing.T, cell *Cell, step int) {
	t.Helper()
	if err := cell.ComputeSendingFlow(step); err != nil {
		t.Fatalf("ComputeSendingFlow: %v", err)
	}
	if err := cell.ComputeReceivingFlow(step); err != nil {
		t.Fatalf("ComputeReceivingFlow: %v", err)
	}
}

func TestCellConservation(t *testing.T) {
	cell := NewCell("c", 40, 1, 150, testSending, testReceiving, WithLength(2), WithTimeStep(0.5))
	computeFlows(t, cell, 0)

	if err := cell.SetOutflow(0, 30); err != nil {
		t.Fatalf("SetOutflow: %v", err)
	}
	if err := cell.SetInflow(0, 10); err != nil {
		t.Fatalf("SetInflow: %v", err)
	}
	cell.IntegrateDensity(0)
	cell.IntegrateSpeed(0)

	// 40 + (10-30)*0.5/2 = 35
	if cell.Density() != 35 {
		t.Errorf("Density must be %v, but got %v", 35.0, cell.Density())
	}
	// 速度用步初密度: 30/40
	if cell.Speed() != 0.75 {
		t.Errorf("Speed must be %v, but got %v", 0.75, cell.Speed())
	}
	if cell.Vehicles() != 70 {
		t.Errorf("Vehicles must be %v, but got %v", 70.0, cell.Vehicles())
	}
}

func TestCellClamp(t *testing.T) {
	cell := NewCell("c", 149, 1, 150, testSending, testReceiving)
	computeFlows(t, cell, 0)
	if err := cell.SetInflow(0, 1+1e-10); err != nil {
		t.Fatalf("SetInflow within tolerance must pass, but got %v", err)
	}
	cell.IntegrateDensity(0)
	if cell.Density() != 150 {
		t.Errorf("Density must be clamped to %v, but got %v", 150.0, cell.Density())
	}
}

func TestZeroDensitySpeed(t *testing.T) {
	cell := NewCell("c", 0, 2, 150, testSending, testReceiving, WithInitialSpeed(0))
	if cell.Speed() != 0 {
		t.Errorf("Initial speed must be %v, but got %v", 0.0, cell.Speed())
	}
	computeFlows(t, cell, 0)
	if err := cell.SetOutflow(0, 0); err != nil {
		t.Fatalf("SetOutflow: %v", err)
	}
	if err := cell.SetInflow(0, 20); err != nil {
		t.Fatalf("SetInflow: %v", err)
	}
	cell.IntegrateDensity(0)
	cell.IntegrateSpeed(0)

	if cell.Speed() != 2 {
		t.Errorf("Speed on empty cell must be %v, but got %v", 2.0, cell.Speed())
	}
	if cell.Density() != 20 {
		t.Errorf("Density must be %v, but got %v", 20.0, cell.Density())
	}
	if math.IsNaN(cell.Speed()) {
		t.Errorf("Speed must not be NaN")
	}
}

func TestCapacityViolation(t *testing.T) {
	cell := NewCell("c", 30, 1, 150, testSending, testReceiving)
	computeFlows(t, cell, 3)

	err := cell.SetOutflow(3, 31)
	var numErr *NumericalError
	if !errors.As(err, &numErr) {
		t.Fatalf("Outflow above sending flow must be a NumericalError, but got %v", err)
	}
	if numErr.Entity != "c" || numErr.Quantity != QOutflow || numErr.Step != 3 || numErr.Bound != 30 {
		t.Errorf("Unexpected error fields: %+v", numErr)
	}

	if err := cell.SetInflow(3, -1); !errors.As(err, &numErr) {
		t.Errorf("Negative inflow must be a NumericalError, but got %v", err)
	}
	if cell.Outflow() != 0 || cell.Inflow() != 0 {
		t.Errorf("Rejected flows must not be stored, but got outflow %v inflow %v", cell.Outflow(), cell.Inflow())
	}
}

func TestInvalidFunctionValue(t *testing.T) {
	cases := []float64{-1, math.NaN()}
	for _, value := range cases {
		v := value
		cell := NewCell("bad", 10, 1, 150,
			SendingFlowFunc(func(float64) float64 { return v }),
			testReceiving)
		err := cell.ComputeSendingFlow(0)
		var numErr *NumericalError
		if !errors.As(err, &numErr) {
			t.Errorf("Sending flow %v must be rejected, but got %v", v, err)
			continue
		}
		if numErr.Quantity != QSendingFlow {
			t.Errorf("Quantity must be %v, but got %v", QSendingFlow, numErr.Quantity)
		}
	}
}

func TestCellValidate(t *testing.T) {
	cell := NewCell("c", 0, 1, 150, nil, testReceiving)
	var cfgErr *ConfigurationError
	if err := cell.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("Cell without sending function must fail validation, but got %v", err)
	}
	cell = NewCell("c", 0, 1, 150, testSending, nil)
	if err := cell.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("Cell without receiving function must fail validation, but got %v", err)
	}
}

func TestUnboundedCell(t *testing.T) {
	cell := NewCell("c", 1e6, 1, math.Inf(1), testSending, Unbounded)
	computeFlows(t, cell, 0)
	if err := cell.SetInflow(0, 1e9); err != nil {
		t.Errorf("Infinite receiving flow must accept any inflow, but got %v", err)
	}
	cell.IntegrateDensity(0)
	if cell.Density() != 1e6+1e9 {
		t.Errorf("Density must be %v, but got %v", 1e6+1e9, cell.Density())
	}
}

func TestCellHistory(t *testing.T) {
	cell := NewCell("c", 10, 1, 150, testSending, testReceiving)
	for step := 0; step < 3; step++ {
		computeFlows(t, cell, step)
		if err := cell.SetOutflow(step, cell.SendingFlow()); err != nil {
			t.Fatal(err)
		}
		if err := cell.SetInflow(step, 0); err != nil {
			t.Fatal(err)
		}
		cell.IntegrateDensity(step)
		cell.IntegrateSpeed(step)
	}

	h := cell.History()
	density := h.Records(QDensity)
	want := []Record{{0, 10}, {1, 0}, {2, 0}, {3, 0}}
	if len(density) != len(want) {
		t.Fatalf("Density records must be %v, but got %v", want, density)
	}
	for i := range want {
		if density[i] != want[i] {
			t.Errorf("Density record %d must be %v, but got %v", i, want[i], density[i])
		}
	}
	if h.Len(QOutflow) != 3 {
		t.Errorf("Outflow records must be %d, but got %d", 3, h.Len(QOutflow))
	}
	if h.Records(QDemand) != nil {
		t.Errorf("Cell must not record demand")
	}
}
