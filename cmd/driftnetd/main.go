package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"driftnet/config"
	"driftnet/observability/logging"
	"driftnet/p2p"
	"driftnet/p2p/seeds"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DRIFTNET_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := logging.SetupWithOptions(logging.Options{
		Service:  "driftnetd",
		Env:      env,
		FilePath: cfg.LogFile,
	})

	identity, err := p2p.LoadOrCreateIdentity(cfg.NodeKeyPath)
	if err != nil {
		logger.Error("Failed to load node identity", slog.Any("error", err))
		os.Exit(1)
	}

	seedEntries := append([]string{}, cfg.Seeds...)
	if path := strings.TrimSpace(cfg.SeedRegistry); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read seed registry", slog.Any("error", err))
			os.Exit(1)
		}
		registry, err := seeds.Parse(raw)
		if err != nil {
			logger.Error("Failed to parse seed registry", slog.Any("error", err))
			os.Exit(1)
		}
		seedEntries = append(seedEntries, registry.Entries(time.Now())...)
	}

	self := identity.SelfAddress(p2p.ProtocolWS, cfg.ListenAddress, p2p.ServiceRelay, time.Now().UnixMilli())
	book := p2p.NewAddressBook(p2p.BookConfig{
		Self:                 self,
		Seeds:                p2p.ParseSeedAddresses(seedEntries, logger),
		Logger:               logger,
		MaxDistance:          cfg.MaxDistance,
		HousekeepingInterval: time.Duration(cfg.HousekeepingSeconds) * time.Second,
		DefaultBanTime:       time.Duration(cfg.DefaultBanSeconds) * time.Second,
	})
	book.Subscribe(func(addresses []*p2p.PeerAddress) {
		logger.Debug("New addresses became queryable",
			slog.Int("count", len(addresses)))
	})
	book.Start()
	defer book.Stop()

	logger.Info("Node started",
		logging.PeerField("peer_id", identity.PeerID),
		logging.PeerField("listen", cfg.ListenAddress),
		slog.Int("seeds", book.Size()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stats := book.Stats()
	logger.Info("Node shutting down",
		slog.Int("known", stats.Total),
		slog.Int("connected", stats.Connected))
}
