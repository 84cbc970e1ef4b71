package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dougsko/dsss/pkg/config"
	"github.com/dougsko/dsss/pkg/engine"
	"github.com/dougsko/dsss/pkg/logging"
)

var (
	configPath = flag.String("config", "config.yaml", "Configuration file path (empty for defaults)")
	version    = flag.Bool("version", false, "Show version information")
)

const Build = "development"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("dsssd version %s (%s)\n", engine.Version, Build)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitGlobalLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	logging.Infof("main", "dsssd version %s starting...", engine.Version)
	logging.Info("main", "transmitter configured", logging.Fields{
		"modulation":     cfg.Transmitter.Modulation,
		"symbol_period":  cfg.Transmitter.SymbolPeriod,
		"symbol_samples": cfg.Transmitter.SymbolSamples,
		"strict":         cfg.Transmitter.Strict,
	})
	logging.Infof("main", "Web interface: http://%s:%d", cfg.Web.BindAddress, cfg.Web.Port)

	daemon, err := NewDSSSDaemon(cfg, *configPath)
	if err != nil {
		logging.Errorf("main", "Failed to create daemon: %v", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := daemon.Start(); err != nil {
		logging.Errorf("main", "Failed to start daemon: %v", err)
		os.Exit(1)
	}

	logging.Info("main", "dsssd started successfully")

	<-sigChan
	logging.Info("main", "Shutting down...")

	if err := daemon.Stop(); err != nil {
		logging.Errorf("main", "Error during shutdown: %v", err)
	}

	logging.Info("main", "dsssd stopped")
}
