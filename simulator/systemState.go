package simulator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/log"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/network"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/recorder"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SystemState 缓存并管理系统状态信息
// 包括排队、路上、已到达的车辆数，累计需求，平均速度和密度
type SystemState struct {
	step             int
	queued           float64
	onRoad           float64
	arrived          float64
	initialTotal     float64
	cumulativeDemand float64
	averageSpeed     float64
	averageDensity   float64
	spillback        int
	mu               sync.RWMutex // 保护并发访问
}

// NewSystemState 创建一个新的系统状态对象，并以当前路网车辆总数作为守恒基准
func NewSystemState(net *network.Network) *SystemState {
	s := &SystemState{}
	s.Update(net)

	s.mu.Lock()
	s.initialTotal = s.queued + s.onRoad + s.arrived
	s.mu.Unlock()
	return s
}

// Update 更新系统状态
// 从路网中获取最新的车辆数量、速度和密度信息
func (s *SystemState) Update(net *network.Network) {
	cells := net.Cells()
	speeds := make([]float64, len(cells))
	densities := make([]float64, len(cells))
	spillback := 0
	for i, cell := range cells {
		speeds[i] = cell.Speed()
		densities[i] = cell.Density()
		if cell.Spillback() {
			spillback++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = net.Elapsed()
	s.queued, s.onRoad, s.arrived = net.Vehicles()
	s.spillback = spillback
	if len(cells) == 0 {
		s.averageSpeed, s.averageDensity = 0, 0
		return
	}
	s.averageSpeed = stat.Mean(speeds, nil)
	s.averageDensity = stat.Mean(densities, nil)
}

// AddDemand 累加本步所有源注入的车辆数（需求×时间步长）
func (s *SystemState) AddDemand(net *network.Network) {
	sources := net.Sources()
	injected := make([]float64, len(sources))
	for i, source := range sources {
		injected[i] = source.Demand() * source.TimeStep()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cumulativeDemand += floats.Sum(injected)
}

// Balance 返回守恒残差：当前车辆总数减去（初始车辆数+累计需求）
func (s *SystemState) Balance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queued + s.onRoad + s.arrived - s.initialTotal - s.cumulativeDemand
}

// RecordData 记录当前系统状态数据
// 将数据传递给recorder进行存储
func (s *SystemState) RecordData(data *recorder.SystemData) {
	balance := s.Balance()

	s.mu.RLock()
	defer s.mu.RUnlock()

	data.RecordSystemData(s.step, s.queued, s.onRoad, s.arrived, s.cumulativeDemand,
		balance, s.averageSpeed, s.averageDensity, s.spillback)
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus(stepSeconds float64) {
	balance := s.Balance()

	s.mu.RLock()
	defer s.mu.RUnlock()

	log.WithFields(logrus.Fields{
		"time":      log.ConvertTimeStepToTime(s.step, stepSeconds),
		"queued":    fmt.Sprintf("%.2f", s.queued),
		"onRoad":    fmt.Sprintf("%.2f", s.onRoad),
		"arrived":   fmt.Sprintf("%.2f", s.arrived),
		"avgSpeed":  fmt.Sprintf("%.2f", s.averageSpeed),
		"density":   fmt.Sprintf("%.2f", s.averageDensity),
		"spillback": s.spillback,
		"balance":   balance,
	}).Infof("Step: %d", s.step)
}

// Step 返回状态对应的时间步
func (s *SystemState) Step() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// GetVehicleCounts 返回各类车辆计数
// 返回值依次为: 源排队数、路上车辆数、已到达车辆数
func (s *SystemState) GetVehicleCounts() (float64, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queued, s.onRoad, s.arrived
}

// GetCumulativeDemand 返回累计注入的车辆数
func (s *SystemState) GetCumulativeDemand() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cumulativeDemand
}

// GetAverageSpeed 返回所有单元格的平均速度
func (s *SystemState) GetAverageSpeed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageSpeed
}

// GetDensity 返回所有单元格的平均密度
func (s *SystemState) GetDensity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageDensity
}

// GetSpillback 返回本步发生溢回的单元格数
func (s *SystemState) GetSpillback() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spillback
}
