package logutil

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger = zap.NewNop()
)

// InitLogger builds the process-wide production logger. Safe to call
// more than once; only the first call takes effect.
func InitLogger() {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			return
		}
		logger = l
	})
}

func GetLogger() *zap.Logger {
	return logger
}
