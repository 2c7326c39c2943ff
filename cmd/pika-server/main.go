// Command pika-server runs the replicated command-dispatch core: a
// RESP2 front-end, an in-memory keyspace, a binlog, and the replication
// control-plane commands (SLAVEOF, TRYSYNC, UCANPSYNC, SYNCERROR, and
// the admin surface around them). Grounded on wingthing's cmd/wt/main.go
// for the cobra wiring shape and the teacher's cmd/server/main.go for
// the flag-to-Config mapping (here YAML-file-backed instead of flags).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pika/internal/binlog"
	"pika/internal/command"
	"pika/internal/config"
	"pika/internal/dispatch"
	"pika/internal/executor"
	"pika/internal/introspection"
	"pika/internal/logging"
	"pika/internal/replication"
	"pika/internal/server"
	"pika/internal/serverstate"
	"pika/internal/storage"
)

const version = "1.0.0"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "pika-server",
		Short: "pika-server — a replicated, RESP2-compatible key/value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "pika.yaml", "path to the server's YAML configuration file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, ok := logging.LevelFromInt(levelFromName(cfg.LogLevel))
	if !ok {
		level = logging.LevelInfo
	}
	log := logging.New(os.Stderr, level)

	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		log.Infof("configuration reloaded from %s", configPath)
		cfg = next
	})
	if err != nil {
		log.Warningf("configuration hot-reload disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	keeper, err := binlog.Open(cfg.BinlogDir)
	if err != nil {
		return fmt.Errorf("open binlog: %w", err)
	}
	defer keeper.Close()

	store := storage.NewStore()
	state := serverstate.New()
	state.SetReadonly(false)
	fanout := replication.NewFanout()
	configStore := introspection.NewConfigStore()
	if cfg.Requirepass != "" {
		_ = configStore.Set("requirepass", cfg.Requirepass)
	}
	if cfg.Masterauth != "" {
		_ = configStore.Set("masterauth", cfg.Masterauth)
	}
	_ = configStore.Set("slave-read-only", yesNo(cfg.SlaveReadOnly))

	plane := replication.New(state, keeper, log, func() replication.Connector {
		return replication.NewTCPConnector()
	})

	table, err := command.NewTable(command.Defaults())
	if err != nil {
		return fmt.Errorf("build command table: %w", err)
	}
	registry := executor.NewRegistry(executor.DefaultFactories())

	execCtx := &executor.Context{
		Store:        store,
		State:        state,
		Config:       configStore,
		Plane:        plane,
		Fanout:       fanout,
		Keeper:       keeper,
		Version:      version,
		RunID:        uuid.NewString(),
		ListenAddr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		SelfHost:     cfg.Host,
		SelfPort:     cfg.Port,
		SafetyMargin: cfg.SafetyMargin,
	}

	d := dispatch.New(table, registry, execCtx)
	srv := server.New(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), d, state, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("pika-server %s starting on %s:%d", version, cfg.Host, cfg.Port)
	return srv.Serve(ctx)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func levelFromName(name string) int64 {
	switch name {
	case "debug":
		return 0
	case "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}
