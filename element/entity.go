package element

import "sync/atomic"

// 共享的原子计数器，用于生成唯一的实体ID（同时作为图节点ID）
var entityIndex int64 = 1000000

// getNextEntityID 生成下一个唯一的实体ID
func getNextEntityID() int64 {
	return atomic.AddInt64(&entityIndex, 1)
}

// Entity 是所有持有交通状态的实体（单元格、源、终点）的公共接口
// ID 满足 gonum 的 graph.Node 接口
type Entity interface {
	ID() int64
	Name() string
	Kind() string
	History() *History
}

// Upstream 是可以作为节点上游的实体（Cell 或 Source）
type Upstream interface {
	Entity
	SendingFlow() float64
	SetOutflow(step int, outflow float64) error
}

// Downstream 是可以作为节点下游的实体（Cell 或 Sink）
type Downstream interface {
	Entity
	ReceivingFlow() float64
	SetInflow(step int, inflow float64) error
}

const (
	KindCell   = "cell"
	KindSource = "source"
	KindSink   = "sink"
)

// options 保存实体构造的可选参数
type options struct {
	length       float64
	timeStep     float64
	initialSpeed *float64
	retention    Retention
}

// Option 用于配置实体的可选参数
type Option func(*options)

func defaultOptions() *options {
	return &options{
		length:   1,
		timeStep: 1,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.length <= 0 {
		panic("length must be positive")
	}
	if o.timeStep <= 0 {
		panic("time step must be positive")
	}
	return o
}

// WithLength 设置实体长度（默认1）
func WithLength(length float64) Option {
	return func(o *options) {
		o.length = length
	}
}

// WithTimeStep 设置时间步长（默认1）
func WithTimeStep(timeStep float64) Option {
	return func(o *options) {
		o.timeStep = timeStep
	}
}

// WithInitialSpeed 设置初始速度（默认等于最大速度）
func WithInitialSpeed(speed float64) Option {
	return func(o *options) {
		o.initialSpeed = &speed
	}
}

// WithRetention 设置历史记录保留策略（默认全部保留）
func WithRetention(retention Retention) Option {
	return func(o *options) {
		o.retention = retention
	}
}
