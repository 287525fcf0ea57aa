// Package main is the entry point for the urftunes API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/urftunes/pkg/api"
	"github.com/james-see/urftunes/pkg/config"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyLogLevel()
	if *port > 0 {
		cfg.Server.Port = *port
	}

	fmt.Printf("Starting urftunes API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	if err := api.StartServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
