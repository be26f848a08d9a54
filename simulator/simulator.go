// Package simulator 按三个阶段推进路网：流量计算、节点解析、状态积分
package simulator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/log"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/network"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/recorder"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/utils"
)

// StepHook 在每个时间步完成后调用，返回错误时中止运行
type StepHook func(state *SystemState) error

// Simulator 持有路网和每步共享的资源
type Simulator struct {
	net   *network.Network
	state *SystemState
	pool  *utils.WorkerPool

	workers     int
	logInterval int
	stepSeconds float64
	hook        StepHook
	data        *recorder.SystemData

	// err 是第一个中止运行的错误，之后的每次 Step 都返回它
	err error

	// 校验后缓存的步进顺序
	sources   []*element.Source
	cells     []*element.Cell
	sinks     []*element.Sink
	junctions []*element.Junction
}

// Option 用于配置模拟器
type Option func(*Simulator)

// WithWorkers 设置每个阶段的并行工作协程数，<=1 时串行执行
func WithWorkers(workers int) Option {
	return func(s *Simulator) {
		s.workers = workers
	}
}

// WithLogInterval 每隔 interval 步输出一次系统状态日志，<=0 时不输出
func WithLogInterval(interval int, stepSeconds float64) Option {
	return func(s *Simulator) {
		s.logInterval = interval
		s.stepSeconds = stepSeconds
	}
}

// WithStepHook 设置每步结束后的回调
func WithStepHook(hook StepHook) Option {
	return func(s *Simulator) {
		s.hook = hook
	}
}

// WithSystemData 每步将系统状态写入 data 缓存
func WithSystemData(data *recorder.SystemData) Option {
	return func(s *Simulator) {
		s.data = data
	}
}

// New 校验路网并创建模拟器
func New(net *network.Network, opts ...Option) (*Simulator, error) {
	if err := net.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid network")
	}

	sim := &Simulator{
		net:         net,
		workers:     1,
		stepSeconds: 1,
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.workers > 1 {
		sim.pool = utils.NewWorkerPool(sim.workers)
	}

	sim.sources = net.Sources()
	sim.cells = net.Cells()
	sim.sinks = net.Sinks()
	sim.junctions = net.Junctions()

	sim.state = NewSystemState(net)
	if sim.data != nil && net.Elapsed() == 0 {
		sim.state.RecordData(sim.data)
	}
	return sim, nil
}

// Network 返回模拟的路网
func (sim *Simulator) Network() *network.Network {
	return sim.net
}

// State 返回系统状态
func (sim *Simulator) State() *SystemState {
	return sim.state
}

// Close 停止工作池
func (sim *Simulator) Close() {
	if sim.pool != nil {
		sim.pool.Stop()
	}
}

// Advance 推进 steps 个时间步
func (sim *Simulator) Advance(steps int) error {
	return sim.AdvanceContext(context.Background(), steps)
}

// AdvanceContext 推进 steps 个时间步，ctx 取消时在两步之间停止
func (sim *Simulator) AdvanceContext(ctx context.Context, steps int) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "stopped after %d steps", i)
		}
		if err := sim.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Err 返回中止运行的错误，运行正常时为 nil
func (sim *Simulator) Err() error {
	return sim.err
}

// Step 执行一个完整的时间步
// 某一步失败后路网停留在该步的中间状态，模拟器保持中止
func (sim *Simulator) Step() error {
	if sim.err != nil {
		return sim.err
	}
	if !sim.net.Validated() {
		return errors.New("network was modified after the simulator was created")
	}
	step := sim.net.Elapsed()

	if err := sim.computeFlows(step); err != nil {
		return sim.abort(errors.Wrapf(err, "step %d: flow evaluation", step))
	}
	if err := sim.resolveJunctions(step); err != nil {
		return sim.abort(errors.Wrapf(err, "step %d: junction resolution", step))
	}
	if err := sim.integrate(step); err != nil {
		return sim.abort(errors.Wrapf(err, "step %d: integration", step))
	}
	sim.net.Tick()

	sim.state.AddDemand(sim.net)
	sim.state.Update(sim.net)
	if sim.data != nil {
		sim.state.RecordData(sim.data)
	}
	if sim.logInterval > 0 && sim.net.Elapsed()%sim.logInterval == 0 {
		sim.state.LogStatus(sim.stepSeconds)
	}
	if sim.hook != nil {
		if err := sim.hook(sim.state); err != nil {
			return sim.abort(errors.Wrapf(err, "step %d: hook", step))
		}
	}
	return nil
}

func (sim *Simulator) abort(err error) error {
	sim.err = err
	return err
}

// 第一阶段：源计算需求和发送流量，单元格计算发送和接收流量，终点计算接收流量
func (sim *Simulator) computeFlows(step int) error {
	ns, nc := len(sim.sources), len(sim.cells)
	return sim.run(ns+nc+len(sim.sinks), func(i int) error {
		switch {
		case i < ns:
			source := sim.sources[i]
			if err := source.ComputeDemand(step); err != nil {
				return err
			}
			return source.ComputeSendingFlow(step)
		case i < ns+nc:
			cell := sim.cells[i-ns]
			if err := cell.ComputeSendingFlow(step); err != nil {
				return err
			}
			return cell.ComputeReceivingFlow(step)
		default:
			return sim.sinks[i-ns-nc].ComputeReceivingFlow(step)
		}
	})
}

// 第二阶段：每个节点解析并写回流量，共享边独占保证节点之间互不干扰
func (sim *Simulator) resolveJunctions(step int) error {
	return sim.run(len(sim.junctions), func(i int) error {
		return sim.junctions[i].Resolve(step)
	})
}

// 第三阶段：先积分密度再积分速度
func (sim *Simulator) integrate(step int) error {
	ns, nc := len(sim.sources), len(sim.cells)
	return sim.run(ns+nc+len(sim.sinks), func(i int) error {
		switch {
		case i < ns:
			sim.sources[i].IntegrateDensity(step)
			sim.sources[i].IntegrateSpeed(step)
		case i < ns+nc:
			sim.cells[i-ns].IntegrateDensity(step)
			sim.cells[i-ns].IntegrateSpeed(step)
		default:
			sim.sinks[i-ns-nc].IntegrateDensity(step)
		}
		return nil
	})
}

// run 执行一个阶段；返回时该阶段全部完成
func (sim *Simulator) run(n int, fn func(i int) error) error {
	if sim.pool != nil {
		return sim.pool.Run(n, fn)
	}
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// Advance 在 net 上推进 steps 个时间步
func Advance(net *network.Network, steps int, opts ...Option) error {
	sim, err := New(net, opts...)
	if err != nil {
		return err
	}
	defer sim.Close()

	if err := sim.Advance(steps); err != nil {
		log.Logger().Errorf("Simulation aborted: %s", err)
		return err
	}
	return nil
}
