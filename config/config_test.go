package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Simulation.TimeStep != 1 || cfg.Simulation.CellLength != 1 || cfg.Simulation.Workers != 1 {
		t.Errorf("Simulation defaults must be (1, 1, 1), but got %+v", cfg.Simulation)
	}
	if cfg.Simulation.Steps != 0 {
		t.Errorf("Steps must default to 0 (scenario preset), but got %d", cfg.Simulation.Steps)
	}
	if cfg.Scenario.Name != "shockwave" {
		t.Errorf("Scenario must be %s, but got %s", "shockwave", cfg.Scenario.Name)
	}
	if cfg.Scenario.SignalGreen != [2]int{0, 5} {
		t.Errorf("Signal green must be %v, but got %v", [2]int{0, 5}, cfg.Scenario.SignalGreen)
	}
	if cfg.Demand.Multiplier != 1 || cfg.Logging.Level != "info" {
		t.Errorf("Demand multiplier and log level must default to 1 and info, but got %v %s", cfg.Demand.Multiplier, cfg.Logging.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	filename := writeFile(t, "config.yaml", `
simulation:
  steps: 40
  workers: 4
history:
  every: 5
scenario:
  name: queue
  waveSpeed: 0.5
  initialDensities: [10, 20, 30]
  signalInterval: 8
`)
	if err := LoadConfig(filename); err != nil {
		t.Fatal(err)
	}
	cfg := GetConfig()
	if cfg.Simulation.Steps != 40 || cfg.Simulation.Workers != 4 {
		t.Errorf("Simulation must be (40, 4), but got %+v", cfg.Simulation)
	}
	if cfg.History.Every != 5 {
		t.Errorf("History.Every must be %d, but got %d", 5, cfg.History.Every)
	}
	if cfg.Scenario.Name != "queue" || cfg.Scenario.WaveSpeed != 0.5 || len(cfg.Scenario.InitialDensities) != 3 {
		t.Errorf("Scenario must be decoded, but got %+v", cfg.Scenario)
	}
	if cfg.Scenario.SignalGreen != [2]int{0, 4} {
		t.Errorf("Signal green must follow the interval, but got %v", cfg.Scenario.SignalGreen)
	}
	if cfg.Simulation.TimeStep != 1 {
		t.Errorf("Missing values must take defaults, but got time step %v", cfg.Simulation.TimeStep)
	}
}

func TestLoadJSON(t *testing.T) {
	filename := writeFile(t, "config.json", `{
  "simulation": {"timeStep": 0.5, "cellLength": 2},
  "demand": {"constant": 12, "profileFile": "demand.csv", "multiplier": 3},
  "output": {"historyFile": "h.csv"}
}`)
	if err := LoadConfig(filename); err != nil {
		t.Fatal(err)
	}
	cfg := GetConfig()
	if cfg.Simulation.TimeStep != 0.5 || cfg.Simulation.CellLength != 2 {
		t.Errorf("Simulation must be (0.5, 2), but got %+v", cfg.Simulation)
	}
	if cfg.Demand.Constant != 12 || cfg.Demand.ProfileFile != "demand.csv" || cfg.Demand.Multiplier != 3 {
		t.Errorf("Demand must be decoded, but got %+v", cfg.Demand)
	}
	if cfg.Output.HistoryFile != "h.csv" {
		t.Errorf("History file must be %s, but got %s", "h.csv", cfg.Output.HistoryFile)
	}
}

func TestLoadErrors(t *testing.T) {
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Missing file must be an error")
	}
	if err := LoadConfig(writeFile(t, "bad.json", "{not json")); err == nil {
		t.Errorf("Malformed JSON must be an error")
	}
	if err := LoadConfig(writeFile(t, "bad.yml", "simulation: [1, 2")); err == nil {
		t.Errorf("Malformed YAML must be an error")
	}
}
