// Package scenario 注册可以直接运行的路网场景
package scenario

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/config"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/network"
)

// Builder 根据配置构建路网
type Builder func(cfg *config.Config) (*network.Network, error)

// Scenario 是一个已注册的场景
type Scenario struct {
	Name        string
	Description string
	// Steps 是配置未指定步数时使用的默认步数
	Steps int
	Build Builder
}

var (
	registry   = make(map[string]Scenario)
	registryMu sync.RWMutex
)

// Register 注册一个场景，同名场景会被覆盖
func Register(s Scenario) {
	if s.Name == "" || s.Build == nil {
		panic("scenario needs a name and a builder")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name] = s
}

// Lookup 按名称查找场景
func Lookup(name string) (Scenario, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

// Names 返回按字母排序的场景名称
func Names() []string {
	registryMu.RLock()
	names := lo.Keys(registry)
	registryMu.RUnlock()

	slices.Sort(names)
	return names
}

// Build 构建指定场景的路网并校验拓扑
func Build(name string, cfg *config.Config) (*network.Network, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, errors.Errorf("unknown scenario %q", name)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	net, err := s.Build(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "can't build scenario %s", name)
	}
	if err := net.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", name)
	}
	return net, nil
}

// Steps 返回运行步数：配置指定时使用配置，否则使用场景默认值
func Steps(name string, cfg *config.Config) int {
	if cfg != nil && cfg.Simulation.Steps > 0 {
		return cfg.Simulation.Steps
	}
	if s, ok := Lookup(name); ok {
		return s.Steps
	}
	return 0
}
