package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/config"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/element"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/flow"
	"github.com/yutang-1sec/Dynamic-Flow-Networks/log"
)

// ReadDemandCSV 从CSV文件读取需求序列
//
// 文件格式:
//
//	第一行为标题
//	之后每行包含时段ID和对应的需求值
//
// 字段不足或无法解析的行会被跳过并写入日志
func ReadDemandCSV(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "can't open demand file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "can't read demand file %s", filename)
	}
	if len(records) < 2 {
		return nil, errors.Errorf("demand file %s has insufficient data", filename)
	}

	demand := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			log.WriteLog(fmt.Sprintf("Warning: Record at line %d has insufficient fields", i+2))
			continue
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			log.WriteLog(fmt.Sprintf("Warning: Failed to parse demand at line %d: %s", i+2, err))
			continue
		}
		demand = append(demand, value)
	}

	log.WriteLog(fmt.Sprintf("Loaded %d demand data points from %s", len(demand), filename))
	return demand, nil
}

// demandFromConfig 根据需求配置生成源的需求函数
// 指定了需求文件时使用调整后的需求序列，否则使用恒定需求
func demandFromConfig(cfg config.DemandConfig) (element.Demand, error) {
	if cfg.ProfileFile == "" {
		if cfg.Constant < 0 {
			return nil, errors.Errorf("constant demand %v must be non-negative", cfg.Constant)
		}
		return flow.ConstantDemand(cfg.Constant), nil
	}

	raw, err := ReadDemandCSV(cfg.ProfileFile)
	if err != nil {
		return nil, err
	}
	return flow.NewProfile(raw, cfg.Multiplier, cfg.Offset), nil
}
