package element

import "math"

// flowTolerance 是容量检查的相对浮点容差
const flowTolerance = 1e-9

// updateDensity 离散守恒律：den += (inflow-outflow)*Δt/L，并截断到 [0, maxDen]
// 截断只用于吸收浮点误差，真正的守恒依赖节点不授予越界流量
func updateDensity(den, inflow, outflow, timeStep, length, maxDen float64) float64 {
	den += (inflow - outflow) * timeStep / length
	return math.Min(math.Max(0, den), maxDen)
}

// updateSpeed 根据流量和密度计算速度
// 密度为0时流量视为0，速度取最大速度，避免 0/0
func updateSpeed(den, outflow, maxSpeed float64) float64 {
	if den > 0 {
		return outflow / den
	}
	return maxSpeed
}

// checkFlow 检查流量非负、非NaN
func checkFlow(entity string, q Quantity, step int, value float64) error {
	if math.IsNaN(value) || value < 0 {
		return &NumericalError{Entity: entity, Quantity: q, Step: step, Value: value, Bound: math.NaN()}
	}
	return nil
}

// checkGranted 检查节点授予的流量不超过对应的发送/接收能力
func checkGranted(entity string, q Quantity, step int, value, bound float64) error {
	if err := checkFlow(entity, q, step, value); err != nil {
		return err
	}
	if math.IsInf(bound, 1) {
		return nil
	}
	if value > bound+flowTolerance*math.Max(1, math.Abs(bound)) {
		return &NumericalError{Entity: entity, Quantity: q, Step: step, Value: value, Bound: bound}
	}
	return nil
}
