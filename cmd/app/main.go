package main

import (
	"flag"
	"log"
	"os"

	"RallyScan/internal/di"
	"RallyScan/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}

	log.Printf("env=%s backend=%s symbols=%d", cfg.Environment, cfg.Backend.Type, len(cfg.Scan.Symbols))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return err
	}

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)
	log.Printf("kafka: connected brokers=%v events_topic=%s", cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)

	// blocks until SIGINT/SIGTERM
	return app.Run()
}
