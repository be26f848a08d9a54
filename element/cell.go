package element

import (
	"fmt"
	"math"
)

// Cell 表示一个均匀路段单元格（Link）
// 密度由相邻节点授予的流入/流出量积分得到，发送/接收能力由注入的基本图函数计算
type Cell struct {
	id         int64
	name       string
	length     float64
	timeStep   float64
	density    float64
	maxDensity float64
	speed      float64
	maxSpeed   float64

	sending   SendingFlow
	receiving ReceivingFlow

	sendingFlow   float64
	receivingFlow float64
	outflow       float64
	inflow        float64

	// flowDensity 是计算本步流量时的密度（步初密度），速度由它和本步流出量得到
	flowDensity float64

	history *History
}

// NewCell 创建一个新的单元格
// maxDensity 可以为 math.Inf(1)，表示不限容量
func NewCell(name string, initialDensity, maxSpeed, maxDensity float64, sending SendingFlow, receiving ReceivingFlow, opts ...Option) *Cell {
	if maxDensity <= 0 {
		panic("maxDensity must be positive")
	}
	if initialDensity < 0 || initialDensity > maxDensity {
		panic(fmt.Sprintf("initial density %v out of range [0, %v]", initialDensity, maxDensity))
	}
	if maxSpeed < 0 {
		panic("maxSpeed must be non-negative")
	}

	o := buildOptions(opts)
	speed := maxSpeed
	if o.initialSpeed != nil {
		speed = *o.initialSpeed
	}

	cell := &Cell{
		id:          getNextEntityID(),
		name:        name,
		length:      o.length,
		timeStep:    o.timeStep,
		density:     initialDensity,
		maxDensity:  maxDensity,
		speed:       speed,
		maxSpeed:    maxSpeed,
		sending:     sending,
		receiving:   receiving,
		flowDensity: initialDensity,
		history:     newHistory(o.retention, QDensity, QSpeed, QSendingFlow, QReceivingFlow, QOutflow, QInflow),
	}
	cell.history.record(QDensity, 0, cell.density, true)
	cell.history.record(QSpeed, 0, cell.speed, true)
	return cell
}

// ID 返回单元格ID
func (cell *Cell) ID() int64 {
	return cell.id
}

// Name 返回单元格名称
func (cell *Cell) Name() string {
	return cell.name
}

// Kind 返回实体类型
func (cell *Cell) Kind() string {
	return KindCell
}

// History 返回单元格的历史日志
func (cell *Cell) History() *History {
	return cell.history
}

func (cell *Cell) Density() float64       { return cell.density }
func (cell *Cell) MaxDensity() float64    { return cell.maxDensity }
func (cell *Cell) Speed() float64         { return cell.speed }
func (cell *Cell) MaxSpeed() float64      { return cell.maxSpeed }
func (cell *Cell) Length() float64        { return cell.length }
func (cell *Cell) TimeStep() float64      { return cell.timeStep }
func (cell *Cell) SendingFlow() float64   { return cell.sendingFlow }
func (cell *Cell) ReceivingFlow() float64 { return cell.receivingFlow }
func (cell *Cell) Outflow() float64       { return cell.outflow }
func (cell *Cell) Inflow() float64        { return cell.inflow }

// Validate 检查单元格的注入函数是否齐全
func (cell *Cell) Validate() error {
	if cell.sending == nil {
		return configurationError(cell.name, "cell has no sending flow function")
	}
	if cell.receiving == nil {
		return configurationError(cell.name, "cell has no receiving flow function")
	}
	return nil
}

// ComputeSendingFlow 用步初密度计算发送流量
func (cell *Cell) ComputeSendingFlow(step int) error {
	cell.flowDensity = cell.density
	value := cell.sending.Sending(cell.density)
	if err := checkFlow(cell.name, QSendingFlow, step, value); err != nil {
		return err
	}
	cell.sendingFlow = value
	cell.history.record(QSendingFlow, step, value, false)
	return nil
}

// ComputeReceivingFlow 用步初密度计算接收流量
func (cell *Cell) ComputeReceivingFlow(step int) error {
	value := cell.receiving.Receiving(cell.density)
	if err := checkFlow(cell.name, QReceivingFlow, step, value); err != nil {
		return err
	}
	cell.receivingFlow = value
	cell.history.record(QReceivingFlow, step, value, false)
	return nil
}

// SetOutflow 由下游节点写入本步实际流出量
func (cell *Cell) SetOutflow(step int, outflow float64) error {
	if err := checkGranted(cell.name, QOutflow, step, outflow, cell.sendingFlow); err != nil {
		return err
	}
	cell.outflow = outflow
	cell.history.record(QOutflow, step, outflow, false)
	return nil
}

// SetInflow 由上游节点写入本步实际流入量
func (cell *Cell) SetInflow(step int, inflow float64) error {
	if err := checkGranted(cell.name, QInflow, step, inflow, cell.receivingFlow); err != nil {
		return err
	}
	cell.inflow = inflow
	cell.history.record(QInflow, step, inflow, false)
	return nil
}

// IntegrateDensity 按守恒律更新密度，记录为 step+1 时刻的状态
func (cell *Cell) IntegrateDensity(step int) {
	cell.density = updateDensity(cell.density, cell.inflow, cell.outflow, cell.timeStep, cell.length, cell.maxDensity)
	cell.history.record(QDensity, step+1, cell.density, false)
}

// IntegrateSpeed 用本步流出量和步初密度更新速度，记录为 step+1 时刻的状态
func (cell *Cell) IntegrateSpeed(step int) {
	cell.speed = updateSpeed(cell.flowDensity, cell.outflow, cell.maxSpeed)
	cell.history.record(QSpeed, step+1, cell.speed, false)
}

// Vehicles 返回单元格中的车辆数（密度×长度）
func (cell *Cell) Vehicles() float64 {
	return cell.density * cell.length
}

// Spillback 报告本步是否发生溢回：实际流出量小于发送能力
func (cell *Cell) Spillback() bool {
	return cell.outflow < cell.sendingFlow && !math.IsInf(cell.sendingFlow, 1)
}
