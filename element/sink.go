package element

import "fmt"

// Sink 表示路网出口
// 密度是累计到达量的里程表，不是物理占用，没有流出和速度
type Sink struct {
	id       int64
	name     string
	length   float64
	timeStep float64
	density  float64

	receiving ReceivingFlow

	receivingFlow float64
	inflow        float64

	history *History
}

// NewSink 创建一个新的终点，receiving 为 nil 时使用 Unbounded
func NewSink(name string, initialDensity float64, receiving ReceivingFlow, opts ...Option) *Sink {
	if initialDensity < 0 {
		panic(fmt.Sprintf("initial density %v must be non-negative", initialDensity))
	}
	if receiving == nil {
		receiving = Unbounded
	}

	o := buildOptions(opts)
	sink := &Sink{
		id:        getNextEntityID(),
		name:      name,
		length:    o.length,
		timeStep:  o.timeStep,
		density:   initialDensity,
		receiving: receiving,
		history:   newHistory(o.retention, QDensity, QReceivingFlow, QInflow),
	}
	sink.history.record(QDensity, 0, sink.density, true)
	return sink
}

// ID 返回终点ID
func (s *Sink) ID() int64 {
	return s.id
}

// Name 返回终点名称
func (s *Sink) Name() string {
	return s.name
}

// Kind 返回实体类型
func (s *Sink) Kind() string {
	return KindSink
}

// History 返回终点的历史日志
func (s *Sink) History() *History {
	return s.history
}

func (s *Sink) Density() float64       { return s.density }
func (s *Sink) Length() float64        { return s.length }
func (s *Sink) TimeStep() float64      { return s.timeStep }
func (s *Sink) ReceivingFlow() float64 { return s.receivingFlow }
func (s *Sink) Inflow() float64        { return s.inflow }

// ComputeReceivingFlow 计算本步接收能力
func (s *Sink) ComputeReceivingFlow(step int) error {
	value := s.receiving.Receiving(s.density)
	if err := checkFlow(s.name, QReceivingFlow, step, value); err != nil {
		return err
	}
	s.receivingFlow = value
	s.history.record(QReceivingFlow, step, value, false)
	return nil
}

// SetInflow 由上游节点写入本步实际流入量
func (s *Sink) SetInflow(step int, inflow float64) error {
	if err := checkGranted(s.name, QInflow, step, inflow, s.receivingFlow); err != nil {
		return err
	}
	s.inflow = inflow
	s.history.record(QInflow, step, inflow, false)
	return nil
}

// IntegrateDensity 累加到达量，流出恒为0
func (s *Sink) IntegrateDensity(step int) {
	s.density += s.inflow * s.timeStep / s.length
	s.history.record(QDensity, step+1, s.density, false)
}

// Vehicles 返回累计到达的车辆数
func (s *Sink) Vehicles() float64 {
	return s.density * s.length
}
