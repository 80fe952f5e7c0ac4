package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gimbal_driver/internal/app"
	"github.com/relabs-tech/gimbal_driver/internal/config"
)

func main() {
	configPath := flag.String("config", "./gimbal_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
