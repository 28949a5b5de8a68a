package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"kittycore/internal/coordinator"
	"kittycore/internal/logging"
)

type config struct {
	Listen       string `yaml:"listen"`
	DatabasePath string `yaml:"database_path"`
	Debug        bool   `yaml:"debug"`
}

func defaultConfig() config {
	return config{
		Listen:       ":4000",
		DatabasePath: "coordinator.db",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		listen     = flag.String("listen", "", "listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Log.WithError(err).Fatal("load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *debug {
		cfg.Debug = true
	}

	logging.Setup(cfg.Debug)
	log := logging.Log

	store, err := coordinator.OpenStore(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer store.Close()

	server := coordinator.NewServer(store, log)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server.Router(),
	}

	go func() {
		log.WithField("listen", cfg.Listen).Info("coordinator listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("serve")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}
