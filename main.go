package main

import (
	"tablepick/core/logger"
	"tablepick/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
