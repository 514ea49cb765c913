// cmd/evmlogd/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/tamzrod/evm-logger/internal/acquire"
	"github.com/tamzrod/evm-logger/internal/config"
	"github.com/tamzrod/evm-logger/internal/publish"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) < 1 {
		glog.Exit("usage: evmlogd [flags] <config.yaml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(args[0])
	if err != nil {
		glog.Exitf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		glog.Exitf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	// --------------------
	// Build the pipeline: sinks first, then the loop that feeds them
	// --------------------

	pub, err := publish.Build(cfg.Logger.Sinks, os.Stdout)
	if err != nil {
		glog.Exitf("sink build failed: %v", err)
	}

	loop, err := acquire.Build(cfg.Logger, pub)
	if err != nil {
		pub.Close()
		glog.Exitf("acquisition build failed: %v", err)
	}

	// --------------------
	// Run until signalled
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	glog.Infof("evmlogd: %s on %s, mode=%s",
		cfg.Logger.Device.Family, cfg.Logger.Device.Port, cfg.Logger.Acquire.Mode)

	runErr := loop.Run(ctx)

	if err := pub.Close(); err != nil {
		glog.Errorf("sink close: %v", err)
	}
	if runErr != nil {
		glog.Exitf("acquisition failed: %v", runErr)
	}
}
