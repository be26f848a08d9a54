package recorder

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/log"
)

var historyHeader = []string{"Entity", "Kind", "Quantity", "Step", "Value"}

// HistoryRows 将实体的全部历史记录格式化为长表格式
// 每行: 实体名称, 实体类型, 物理量, 时间步, 数值
func HistoryRows(entities []element.Entity) [][]string {
	rows := make([][]string, 0, len(entities)*8)
	for _, e := range entities {
		h := e.History()
		for _, q := range h.Quantities() {
			for _, rec := range h.Records(q) {
				rows = append(rows, []string{
					e.Name(),
					e.Kind(),
					string(q),
					strconv.Itoa(rec.Step),
					formatFloat(rec.Value),
				})
			}
		}
	}
	return rows
}

// ExportHistoryCSV 将实体历史写入 CSV 文件（覆盖已有文件）
func ExportHistoryCSV(filename string, entities []element.Entity) error {
	startTime := time.Now()
	if err := initializeCSV(filename, historyHeader); err != nil {
		return errors.Wrapf(err, "can't init history file %s", filename)
	}

	rows := HistoryRows(entities)
	if len(rows) > 0 {
		if err := appendToCSV(filename, rows); err != nil {
			return errors.Wrapf(err, "can't write history to %s", filename)
		}
	}

	log.WriteLog("History data write completed: " + strconv.Itoa(len(rows)) + " records in " + time.Since(startTime).String())
	return nil
}

// DensityMatrix 返回以时间步为行、单元格为列的密度矩阵和对应的时间步
// 只保留所有单元格都有记录的时间步
func DensityMatrix(cells []*element.Cell) ([]int, [][]float64) {
	if len(cells) == 0 {
		return nil, nil
	}

	byStep := make([]map[int]float64, len(cells))
	for i, cell := range cells {
		byStep[i] = make(map[int]float64)
		for _, rec := range cell.History().Records(element.QDensity) {
			byStep[i][rec.Step] = rec.Value
		}
	}

	var steps []int
	var matrix [][]float64
	for _, rec := range cells[0].History().Records(element.QDensity) {
		row := make([]float64, len(cells))
		complete := true
		for i := range cells {
			v, ok := byStep[i][rec.Step]
			if !ok {
				complete = false
				break
			}
			row[i] = v
		}
		if complete {
			steps = append(steps, rec.Step)
			matrix = append(matrix, row)
		}
	}
	return steps, matrix
}

// ExportDensityCSV 将密度矩阵写入 CSV，第一列为时间步，其余列为各单元格
func ExportDensityCSV(filename string, cells []*element.Cell) error {
	header := make([]string, 0, len(cells)+1)
	header = append(header, "Step")
	for _, cell := range cells {
		header = append(header, cell.Name())
	}
	if err := initializeCSV(filename, header); err != nil {
		return errors.Wrapf(err, "can't init density file %s", filename)
	}

	steps, matrix := DensityMatrix(cells)
	rows := make([][]string, len(steps))
	for i, step := range steps {
		row := make([]string, 0, len(cells)+1)
		row = append(row, strconv.Itoa(step))
		for _, v := range matrix[i] {
			row = append(row, formatFloat(v))
		}
		rows[i] = row
	}
	if len(rows) == 0 {
		return nil
	}
	return errors.Wrapf(appendToCSV(filename, rows), "can't write density matrix to %s", filename)
}
