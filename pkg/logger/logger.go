package logger

import (
	"go.uber.org/zap"
)

// New builds the production logger used by both processes.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}
