package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"gopkg.in/yaml.v3"
)

// Config 保存所有配置项的顶级结构
type Config struct {
	Simulation SimulationConfig  `json:"simulation" yaml:"simulation"`
	History    element.Retention `json:"history" yaml:"history"`
	Logging    LoggingConfig     `json:"logging" yaml:"logging"`
	Scenario   ScenarioConfig    `json:"scenario" yaml:"scenario"`
	Demand     DemandConfig      `json:"demand" yaml:"demand"`
	Output     OutputConfig      `json:"output" yaml:"output"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	// 时间步数，<=0 时使用场景预设
	Steps      int     `json:"steps" yaml:"steps"`
	TimeStep   float64 `json:"timeStep" yaml:"timeStep"`
	CellLength float64 `json:"cellLength" yaml:"cellLength"`
	// 每个阶段内并行处理实体的协程数，<=1 表示串行
	Workers int `json:"workers" yaml:"workers"`
}

// LoggingConfig 保存日志记录相关的配置项
type LoggingConfig struct {
	File               string `json:"file" yaml:"file"`
	Level              string `json:"level" yaml:"level"`
	IntervalWriteToLog int    `json:"intervalWriteToLog" yaml:"intervalWriteToLog"`
}

// ScenarioConfig 保存场景和基本图参数
type ScenarioConfig struct {
	// 场景名称: "drain", "shockwave", "queue", "jam", "merge", "diverge", "signal"
	Name    string `json:"name" yaml:"name"`
	NumCell int    `json:"numCell" yaml:"numCell"`

	// 三角形基本图参数，0 表示使用场景预设
	MaxSpeed   float64 `json:"maxSpeed" yaml:"maxSpeed"`
	WaveSpeed  float64 `json:"waveSpeed" yaml:"waveSpeed"`
	MaxFlow    float64 `json:"maxFlow" yaml:"maxFlow"`
	MaxDensity float64 `json:"maxDensity" yaml:"maxDensity"`

	// 初始密度，长度需等于 NumCell；为空时使用场景自带的初始条件
	InitialDensities []float64 `json:"initialDensities" yaml:"initialDensities"`

	// 合流优先级（merge 场景）和分流比（diverge 场景）
	MergePriorities []float64 `json:"mergePriorities" yaml:"mergePriorities"`
	SplitRatios     []float64 `json:"splitRatios" yaml:"splitRatios"`

	// 信号灯参数（signal 场景）
	SignalInterval int    `json:"signalInterval" yaml:"signalInterval"`
	SignalGreen    [2]int `json:"signalGreen" yaml:"signalGreen"`
	// SignalScale 按倍数缩放周期和绿灯区间，0 表示不缩放
	SignalScale float64 `json:"signalScale" yaml:"signalScale"`
	// SignalOffset 是第一个时间步在周期内的位置（缩放前）
	SignalOffset int `json:"signalOffset" yaml:"signalOffset"`
}

// DemandConfig 保存需求生成相关的配置项
type DemandConfig struct {
	Constant    float64 `json:"constant" yaml:"constant"`
	ProfileFile string  `json:"profileFile" yaml:"profileFile"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
	Offset      float64 `json:"offset" yaml:"offset"`
}

// OutputConfig 保存输出文件相关的配置项
type OutputConfig struct {
	HistoryFile string `json:"historyFile" yaml:"historyFile"`
	SystemFile  string `json:"systemFile" yaml:"systemFile"`
	DensityFile string `json:"densityFile" yaml:"densityFile"`
}

var globalConfig *Config

// LoadConfig loads configuration from the specified JSON or YAML file
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "can't read config %s", filename)
	}

	config := &Config{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return errors.Wrapf(err, "can't decode config %s", filename)
	}

	config.applyDefaults()
	globalConfig = config
	return nil
}

// Default 返回全部使用默认值的配置
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// SetConfig 替换全局配置
func SetConfig(config *Config) {
	globalConfig = config
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	return globalConfig
}

func (config *Config) applyDefaults() {
	// 设置模拟参数的默认值
	if config.Simulation.TimeStep <= 0 {
		config.Simulation.TimeStep = 1
	}
	if config.Simulation.CellLength <= 0 {
		config.Simulation.CellLength = 1
	}
	if config.Simulation.Workers <= 0 {
		config.Simulation.Workers = 1
	}

	// 设置日志参数的默认值
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.IntervalWriteToLog <= 0 {
		config.Logging.IntervalWriteToLog = 10
	}

	// 基本图参数为0时使用场景预设
	if config.Scenario.Name == "" {
		config.Scenario.Name = "shockwave"
	}
	if config.Scenario.SignalInterval <= 0 {
		config.Scenario.SignalInterval = 10
	}
	if config.Scenario.SignalGreen == [2]int{} {
		config.Scenario.SignalGreen = [2]int{0, config.Scenario.SignalInterval / 2}
	}

	// 设置需求参数的默认值
	if config.Demand.Multiplier == 0 {
		config.Demand.Multiplier = 1
	}
}
