package logger

import "go.uber.org/zap"

// Lg starts as a nop so packages can log before InitLogger runs (tests
// mostly don't care about output).
var Lg = zap.NewNop()

func InitLogger() {
	logger, _ := zap.NewProduction()
	Lg = logger
}
