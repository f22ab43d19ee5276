package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/NicolasHaas/roomchat/pkg/logging"
	"github.com/NicolasHaas/roomchat/pkg/server"
	"github.com/NicolasHaas/roomchat/pkg/store"
	"github.com/NicolasHaas/roomchat/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	configFile := flag.String("config", "", "YAML config file (command-line flags override it)")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP chat bind address")
	flag.StringVar(&cfg.WebSocketAddr, "websocket", cfg.WebSocketAddr, "HTTP bind address for the /ws endpoint (empty to disable)")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "User store backend: csv, sqlite or memory")
	flag.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "User store file path")
	flag.StringVar(&cfg.RoomsFile, "rooms-file", "", "YAML file defining rooms to create on startup")
	flag.IntVar(&cfg.SendQueueSize, "send-queue", cfg.SendQueueSize, "Outbound lines buffered per connection")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Per-line write deadline")
	flag.DurationVar(&cfg.AuthTimeout, "auth-timeout", cfg.AuthTimeout, "Disconnect clients that do not authenticate in time (0 to disable)")
	flag.BoolVar(&cfg.ExportUsers, "export-users", false, "Export all users as YAML and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: "+logging.FormatNames())
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("roomchat-server", version.Full())
		return
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if *configFile != "" {
		if err := applyConfigFile(*configFile, &cfg); err != nil {
			slog.Error("load config", "path", *configFile, "err", err)
			os.Exit(1)
		}
	}

	st, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		slog.Error("open user store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}

	// Handle export commands (run and exit)
	if cfg.ExportUsers {
		defer func() { _ = st.Close() }()
		data, err := server.ExportUsersYAML(st)
		if err != nil {
			slog.Error("export users", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	slog.Info("starting roomchat server", "version", version.String(), "store", cfg.StoreDriver)
	srv := server.New(cfg, server.Dependencies{Store: st})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

// applyConfigFile loads path into cfg, then re-applies every flag given on
// the command line so explicit flags win over the file.
func applyConfigFile(path string, cfg *server.Config) error {
	explicit := map[string]string{}
	flag.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := server.LoadConfigFile(path, cfg); err != nil {
		return err
	}

	for name, value := range explicit {
		if err := flag.Set(name, value); err != nil {
			return fmt.Errorf("flag -%s: %w", name, err)
		}
	}
	return nil
}
