package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/xenogy/bancheck/agent"
	"github.com/xenogy/bancheck/agent/config"
	"github.com/xenogy/bancheck/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the agent configuration file")
	flag.Parse()

	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	// Runtime settings come from the environment (VMAGENT_LOG_LEVEL,
	// VMAGENT_LOG_FILE, ...); the domain configuration stays in YAML.
	settings := viper.New()
	settings.SetEnvPrefix("vmagent")
	settings.AutomaticEnv()
	settings.SetDefault("log_level", "info")
	settings.SetDefault("log_file", "")
	settings.SetDefault("log_max_size_mb", 20)

	logger, cleanup, err := logging.New(logging.Config{
		Level:     settings.GetString("log_level"),
		FilePath:  settings.GetString("log_file"),
		MaxSizeMB: settings.GetInt("log_max_size_mb"),
	})
	if err != nil {
		log.Fatalf("configuring logger: %v", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration invalid, refusing to start", "err", err)
		os.Exit(1)
	}

	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("agent wiring failed", "err", err)
		os.Exit(1)
	}

	if a.TestAPIKey() {
		logger.Info("control-plane credential accepted")
	} else {
		logger.Warn("control-plane credential rejected or unreachable")
	}

	a.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	a.Stop()
}
