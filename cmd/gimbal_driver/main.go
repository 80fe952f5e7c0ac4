// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gimbal_driver/internal/app"
	"github.com/relabs-tech/gimbal_driver/internal/config"
)

func main() {
	configPath := flag.String("config", "./gimbal_config.txt", "path to configuration file")
	useMock := flag.Bool("mock", false, "use an in-memory mock gimbal instead of the serial device")
	flag.Parse()

	log.Println("starting gimbal driver (gimbal → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGimbalDriver(*useMock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
