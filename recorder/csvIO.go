// Package recorder 将实体历史和系统状态导出为 CSV 文件
package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

func initializeCSV(filename string, header []string) (err error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "can't create directory for %s", filename)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "can't create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "can't close file")
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "can't write header")
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "can't flush header")
}

func appendToCSV(filename string, data [][]string) (err error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "can't open file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "can't close file")
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return errors.Wrap(err, "can't write data")
	}
	return nil
}

// fileExists 检查文件是否存在
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
