// Command ssid prints deterministic identifiers for map features.
//
//	ssid intersection -- -74.003388 40.634538
//	ssid geometry 110,45 115,50 120,55 --format base58 --output yaml
//	ssid reference 2 749442bfe6fc43f18d646f60040182db 13fd78d99a6019397ba58238567850b8
package main

import (
	"os"

	"go.uber.org/zap"
	"sharedstreets/internal/logger"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
