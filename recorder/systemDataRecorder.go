package recorder

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// SystemData 缓存每个时间步的系统状态，按需追加写入 CSV
type SystemData struct {
	cache [][]string
	mu    sync.Mutex
	rows  int
}

// NewSystemData 创建一个新的系统状态缓存
func NewSystemData() *SystemData {
	return &SystemData{cache: make([][]string, 0, 64)}
}

var systemDataHeader = []string{
	"Step", "Queued", "OnRoad", "Arrived", "CumulativeDemand", "Balance", "AvgSpeed", "AvgDensity", "Spillback",
}

// RecordSystemData 记录一个时间步的系统状态
func (d *SystemData) RecordSystemData(step int, queued, onRoad, arrived, cumulativeDemand, balance, averageSpeed, averageDensity float64, spillback int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = append(d.cache, []string{
		strconv.Itoa(step),
		formatFloat(queued),
		formatFloat(onRoad),
		formatFloat(arrived),
		formatFloat(cumulativeDemand),
		formatFloat(balance),
		formatFloat(averageSpeed),
		formatFloat(averageDensity),
		strconv.Itoa(spillback),
	})
	d.rows++
}

// Pending 返回尚未写入文件的记录数
func (d *SystemData) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

// Rows 返回累计记录的行数
func (d *SystemData) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// InitSystemDataCSV 创建系统状态 CSV 文件并写入表头
func InitSystemDataCSV(filename string) error {
	return errors.Wrapf(initializeCSV(filename, systemDataHeader), "can't init system data file %s", filename)
}

// WriteToSystemDataCSV 将缓存写入文件并清空缓存；文件不存在时先写表头
func (d *SystemData) WriteToSystemDataCSV(filename string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !fileExists(filename) {
		if err := InitSystemDataCSV(filename); err != nil {
			return err
		}
	}
	if len(d.cache) == 0 {
		return nil
	}
	if err := appendToCSV(filename, d.cache); err != nil {
		return errors.Wrapf(err, "can't write system data to %s", filename)
	}
	d.cache = make([][]string, 0, cap(d.cache))
	return nil
}
