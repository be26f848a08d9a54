// Package log 提供模拟过程的运行日志，底层使用 logrus
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	logger  = newLogger(os.Stdout)
	logFile *os.File
	logMu   sync.Mutex
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLog 初始化日志；filename 为空时只输出到标准输出，否则同时写入文件
// 重复调用时关闭上一次打开的日志文件；出错时保持原有日志配置不变
func InitLog(filename string, level string) error {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", level)
		}
		lvl = parsed
	}

	var file *os.File
	out := io.Writer(os.Stdout)
	if filename != "" {
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			return errors.Wrapf(err, "can't create log directory for %s", filename)
		}
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrapf(err, "can't open log file %s", filename)
		}
		file = f
		out = io.MultiWriter(os.Stdout, file)
	}

	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			logger.Errorf("Failed to close log file: %s", err)
		}
	}
	logFile = file
	logger = newLogger(out)
	logger.SetLevel(lvl)
	return nil
}

// SetOutput 重定向日志输出（测试中用于静默）
func SetOutput(out io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger.SetOutput(out)
}

// Logger 返回底层 logrus 实例
func Logger() *logrus.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	return logger
}

// WriteLog 写一条信息级日志
func WriteLog(msg string) {
	Logger().Info(msg)
}

// WithFields 返回带结构化字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger().WithFields(fields)
}

// CloseLog 关闭日志文件
func CloseLog() {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			logger.Errorf("Failed to close log file: %s", err)
		}
		logFile = nil
		logger.SetOutput(os.Stdout)
	}
}

// LogEnvironment 记录运行环境
func LogEnvironment() {
	WithFields(logrus.Fields{
		"go":         runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"gomaxprocs": runtime.GOMAXPROCS(0),
	}).Info("Environment")
}

// LogSimParameters 记录模拟参数
func LogSimParameters(scenario string, steps int, timeStep, cellLength float64, workers int) {
	WithFields(logrus.Fields{
		"scenario":   scenario,
		"steps":      steps,
		"timeStep":   timeStep,
		"cellLength": cellLength,
		"workers":    workers,
	}).Info("Simulation parameters")
}

// ConvertTimeStepToTime 将时间步换算为 HH:MM:SS（stepSeconds 为每步的秒数）
func ConvertTimeStepToTime(step int, stepSeconds float64) string {
	total := int(float64(step) * stepSeconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
