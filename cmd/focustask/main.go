package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"focustask/internal/app"
	"focustask/internal/config"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads the environment, and starts the server or a
// one-shot migration.
func run(args []string) error {
	fs := flag.NewFlagSet("focustask", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 0, "server port override")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}
	if *port != 0 && (*port < 0 || *port > 65535) {
		return fmt.Errorf("invalid port: %d", *port)
	}

	// A local .env is optional; environment variables win either way.
	_ = godotenv.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	configPath := *cfgPath
	if configPath == "" {
		configPath = os.Getenv(config.EnvConfigPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		return app.Migrate(ctx, configPath)
	}
	return app.RunServer(ctx, configPath, *port)
}
