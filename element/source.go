package element

import (
	"fmt"
	"math"
)

// Source 表示路网入口
// 密度表示等待进入路网的排队车辆，上不封顶；按 demand 增长、按 outflow 减少
type Source struct {
	id       int64
	name     string
	length   float64
	timeStep float64
	density  float64
	speed    float64
	maxSpeed float64

	sending SendingFlow
	demandF Demand

	demand      float64
	sendingFlow float64
	outflow     float64
	flowDensity float64

	history *History
}

// NewSource 创建一个新的源
func NewSource(name string, initialDensity, maxSpeed float64, sending SendingFlow, demand Demand, opts ...Option) *Source {
	if initialDensity < 0 {
		panic(fmt.Sprintf("initial density %v must be non-negative", initialDensity))
	}
	if maxSpeed < 0 {
		panic("maxSpeed must be non-negative")
	}

	o := buildOptions(opts)
	speed := maxSpeed
	if o.initialSpeed != nil {
		speed = *o.initialSpeed
	}

	source := &Source{
		id:          getNextEntityID(),
		name:        name,
		length:      o.length,
		timeStep:    o.timeStep,
		density:     initialDensity,
		speed:       speed,
		maxSpeed:    maxSpeed,
		sending:     sending,
		demandF:     demand,
		flowDensity: initialDensity,
		history:     newHistory(o.retention, QDensity, QSpeed, QSendingFlow, QOutflow, QDemand),
	}
	source.history.record(QDensity, 0, source.density, true)
	source.history.record(QSpeed, 0, source.speed, true)
	return source
}

// ID 返回源ID
func (s *Source) ID() int64 {
	return s.id
}

// Name 返回源名称
func (s *Source) Name() string {
	return s.name
}

// Kind 返回实体类型
func (s *Source) Kind() string {
	return KindSource
}

// History 返回源的历史日志
func (s *Source) History() *History {
	return s.history
}

func (s *Source) Density() float64     { return s.density }
func (s *Source) Speed() float64       { return s.speed }
func (s *Source) MaxSpeed() float64    { return s.maxSpeed }
func (s *Source) Length() float64      { return s.length }
func (s *Source) TimeStep() float64    { return s.timeStep }
func (s *Source) Demand() float64      { return s.demand }
func (s *Source) SendingFlow() float64 { return s.sendingFlow }
func (s *Source) Outflow() float64     { return s.outflow }

// Validate 检查源的注入函数是否齐全
func (s *Source) Validate() error {
	if s.sending == nil {
		return configurationError(s.name, "source has no sending flow function")
	}
	if s.demandF == nil {
		return configurationError(s.name, "source has no demand function")
	}
	return nil
}

// ComputeDemand 计算本步外生需求
func (s *Source) ComputeDemand(step int) error {
	value := s.demandF.Demand(step)
	if err := checkFlow(s.name, QDemand, step, value); err != nil {
		return err
	}
	if math.IsInf(value, 1) {
		return &NumericalError{Entity: s.name, Quantity: QDemand, Step: step, Value: value, Bound: math.NaN()}
	}
	s.demand = value
	s.history.record(QDemand, step, value, false)
	return nil
}

// ComputeSendingFlow 用步初排队密度计算发送流量
func (s *Source) ComputeSendingFlow(step int) error {
	s.flowDensity = s.density
	value := s.sending.Sending(s.density)
	if err := checkFlow(s.name, QSendingFlow, step, value); err != nil {
		return err
	}
	s.sendingFlow = value
	s.history.record(QSendingFlow, step, value, false)
	return nil
}

// SetOutflow 由下游节点写入本步实际流出量
func (s *Source) SetOutflow(step int, outflow float64) error {
	if err := checkGranted(s.name, QOutflow, step, outflow, s.sendingFlow); err != nil {
		return err
	}
	s.outflow = outflow
	s.history.record(QOutflow, step, outflow, false)
	return nil
}

// IntegrateDensity 排队密度按需求增加、按流出减少，没有上限
func (s *Source) IntegrateDensity(step int) {
	s.density = updateDensity(s.density, s.demand, s.outflow, s.timeStep, s.length, math.Inf(1))
	s.history.record(QDensity, step+1, s.density, false)
}

// IntegrateSpeed 与单元格相同的零密度约定
func (s *Source) IntegrateSpeed(step int) {
	s.speed = updateSpeed(s.flowDensity, s.outflow, s.maxSpeed)
	s.history.record(QSpeed, step+1, s.speed, false)
}

// Vehicles 返回排队车辆数
func (s *Source) Vehicles() float64 {
	return s.density * s.length
}
