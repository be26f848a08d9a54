package element

import "testing"

func TestRetentionEvery(t *testing.T) {
	h := newHistory(Retention{Every: 3}, QDensity)
	h.record(QDensity, 0, 1, true)
	for step := 1; step <= 10; step++ {
		h.record(QDensity, step, float64(step), false)
	}
	got := h.Records(QDensity)
	wantSteps := []int{0, 3, 6, 9}
	if len(got) != len(wantSteps) {
		t.Fatalf("Records must have %d entries, but got %v", len(wantSteps), got)
	}
	for i, step := range wantSteps {
		if got[i].Step != step {
			t.Errorf("Record %d must be at step %d, but got %d", i, step, got[i].Step)
		}
	}
}

func TestRetentionMax(t *testing.T) {
	h := newHistory(Retention{Max: 3}, QOutflow)
	for step := 0; step < 7; step++ {
		h.record(QOutflow, step, float64(step*10), false)
	}
	got := h.Values(QOutflow)
	want := []float64{40, 50, 60}
	if len(got) != len(want) {
		t.Fatalf("Values must be %v, but got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Value %d must be %v, but got %v", i, want[i], got[i])
		}
	}
	if h.Len(QOutflow) != 3 {
		t.Errorf("Len must be %d, but got %d", 3, h.Len(QOutflow))
	}
}

func TestRetentionDefaultKeepsAll(t *testing.T) {
	h := newHistory(Retention{}, QSpeed)
	for step := 0; step < 100; step++ {
		h.record(QSpeed, step, 1, false)
	}
	if h.Len(QSpeed) != 100 {
		t.Errorf("Len must be %d, but got %d", 100, h.Len(QSpeed))
	}
}

func TestHistoryUnknownQuantity(t *testing.T) {
	h := newHistory(Retention{}, QDensity)
	h.record(QDemand, 0, 1, true)
	if h.Records(QDemand) != nil || h.Len(QDemand) != 0 {
		t.Errorf("Unknown quantity must not be recorded")
	}
	if q := h.Quantities(); len(q) != 1 || q[0] != QDensity {
		t.Errorf("Quantities must be %v, but got %v", []Quantity{QDensity}, q)
	}
}

func TestRecordsAreCopies(t *testing.T) {
	h := newHistory(Retention{}, QDensity)
	h.record(QDensity, 0, 5, true)
	records := h.Records(QDensity)
	records[0].Value = 100
	if h.Values(QDensity)[0] != 5 {
		t.Errorf("History must not change through returned records")
	}
}

func TestRetentionMaxWrapsInOrder(t *testing.T) {
	h := newHistory(Retention{Max: 3}, QDensity)
	h.record(QDensity, 0, 0, true)
	for step := 1; step <= 10; step++ {
		h.record(QDensity, step, float64(step), false)
	}
	got := h.Records(QDensity)
	wantSteps := []int{8, 9, 10}
	if len(got) != len(wantSteps) {
		t.Fatalf("Records must have %d entries, but got %v", len(wantSteps), got)
	}
	for i, step := range wantSteps {
		if got[i].Step != step || got[i].Value != float64(step) {
			t.Errorf("Record %d must be step %d, but got %+v", i, step, got[i])
		}
	}
	// 初始记录同样会被淘汰
	if got[0].Step == 0 {
		t.Errorf("Step 0 must be evicted once Max is reached")
	}
}
