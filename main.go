package main

import (
	"glee-scheduler/core/logger"
	"glee-scheduler/core/server"
	"os"
)

// @title Glee Scheduler API
// @version 1.0
// @description Calendar, appointment, feed and attendance scheduling engine

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("Main:Run", "error", err)
		os.Exit(1)
	}
}
