package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/config"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/log"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/network"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/recorder"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/scenario"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/simulator"
)

var (
	configFile   string
	scenarioName string
	steps        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dyflownet",
		Short:         "Cell Transmission Model traffic simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (JSON, or YAML by .yaml/.yml extension). Defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&scenarioName, "scenario", "", "Scenario name, overrides scenario.name in config")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build a scenario and advance it",
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&steps, "steps", 0, "Number of time steps, overrides simulation.steps in config")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Build a scenario and check its topology without stepping",
		RunE:  validateScenario,
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List registered scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scenario.Names() {
				s, _ := scenario.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %4d steps  %s\n", name, s.Steps, s.Description)
			}
		},
	}

	rootCmd.AddCommand(runCmd, validateCmd, scenariosCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置文件并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := config.LoadConfig(configFile); err != nil {
			return nil, err
		}
	} else {
		config.SetConfig(config.Default())
	}
	cfg := config.GetConfig()
	if scenarioName != "" {
		cfg.Scenario.Name = scenarioName
	}
	if steps > 0 {
		cfg.Simulation.Steps = steps
	}
	return cfg, nil
}

func validateScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	net, err := scenario.Build(cfg.Scenario.Name, cfg)
	if err != nil {
		return err
	}
	return reportTopology(cmd, cfg.Scenario.Name, net)
}

func reportTopology(cmd *cobra.Command, name string, net *network.Network) error {
	components, err := net.Components()
	if err != nil {
		return err
	}
	unreachable, err := net.Unreachable()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sources, %d cells, %d sinks, %d junctions, %d components\n",
		name, len(net.Sources()), len(net.Cells()), len(net.Sinks()), len(net.Junctions()), components)
	for _, s := range unreachable {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: source %s can't reach any sink\n", s)
	}
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("20060102150405")
	name := cfg.Scenario.Name
	files := outputFiles(cfg, initTime, name)

	if err := log.InitLog(cfg.Logging.File, cfg.Logging.Level); err != nil {
		return err
	}
	defer log.CloseLog()
	log.LogEnvironment()

	net, err := scenario.Build(name, cfg)
	if err != nil {
		return err
	}
	numSteps := scenario.Steps(name, cfg)
	log.LogSimParameters(name, numSteps, cfg.Simulation.TimeStep, cfg.Simulation.CellLength, cfg.Simulation.Workers)
	if unreachable, err := net.Unreachable(); err == nil && len(unreachable) > 0 {
		log.Logger().Warnf("Sources without a path to any sink: %v", unreachable)
	}

	systemData := recorder.NewSystemData()
	if err := recorder.InitSystemDataCSV(files["system"]); err != nil {
		return err
	}

	sim, err := simulator.New(net,
		simulator.WithWorkers(cfg.Simulation.Workers),
		simulator.WithLogInterval(cfg.Logging.IntervalWriteToLog, cfg.Simulation.TimeStep),
		simulator.WithSystemData(systemData),
		simulator.WithStepHook(func(state *simulator.SystemState) error {
			if state.Step()%cfg.Logging.IntervalWriteToLog != 0 {
				return nil
			}
			return systemData.WriteToSystemDataCSV(files["system"])
		}),
	)
	if err != nil {
		return err
	}
	defer sim.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	startTime := time.Now()
	runErr := sim.AdvanceContext(ctx, numSteps)
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		log.Logger().Warnf("Interrupted at step %d, writing partial results", net.Elapsed())
		runErr = nil
	}

	// 即使运行中止也写出已有的数据
	if err := finishSimulation(net, systemData, files); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	log.WriteLog(fmt.Sprintf("Simulated %d steps in %s, conservation residual %g",
		net.Elapsed(), time.Since(startTime), sim.State().Balance()))
	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return nil
}

// outputFiles 返回输出文件路径，未配置时按初始化时间和场景名命名
func outputFiles(cfg *config.Config, initTime, name string) map[string]string {
	files := map[string]string{
		"history": cfg.Output.HistoryFile,
		"system":  cfg.Output.SystemFile,
		"density": cfg.Output.DensityFile,
	}
	if files["history"] == "" {
		files["history"] = fmt.Sprintf("./data/%s_%s_History.csv", initTime, name)
	}
	if files["system"] == "" {
		files["system"] = fmt.Sprintf("./data/%s_%s_SystemData.csv", initTime, name)
	}
	if files["density"] == "" {
		files["density"] = fmt.Sprintf("./data/%s_%s_Density.csv", initTime, name)
	}
	return files
}

// finishSimulation 写入剩余的系统状态、实体历史和密度矩阵
func finishSimulation(net *network.Network, systemData *recorder.SystemData, files map[string]string) error {
	if err := systemData.WriteToSystemDataCSV(files["system"]); err != nil {
		return err
	}
	if err := recorder.ExportHistoryCSV(files["history"], net.Entities()); err != nil {
		return err
	}
	return recorder.ExportDensityCSV(files["density"], net.Cells())
}
