package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/arena"
	"github.com/automoto/dragonsons/server/persist"
	"github.com/automoto/dragonsons/server/room"
	"github.com/automoto/dragonsons/server/session"
	"github.com/automoto/dragonsons/server/telemetry"
	"github.com/automoto/dragonsons/server/transport"
	"github.com/automoto/dragonsons/server/transport/jsonws"
	"github.com/automoto/dragonsons/server/transport/necsws"
	"github.com/automoto/dragonsons/server/world"
	"golang.org/x/sync/errgroup"
)

func main() {
	addr := flag.String("addr", GetEnvDefault("ADDR", ""), "Listen address for the JSON transport")
	port := flag.Uint("port", envUint("PORT", 8787), "JSON WebSocket port")
	necsPort := flag.Uint("necs-port", envUint("NECS_PORT", 7373), "necs binary transport port (0 = off)")
	tickRate := flag.Int("tickrate", 0, "Override the balance tick rate (0 = use config)")
	configPath := flag.String("config", GetEnvDefault("BALANCE_PATH", ""), "Balance/content JSON file (empty = built-in defaults)")
	watch := flag.Duration("watch", time.Second, "Config file poll interval")
	arenaPath := flag.String("arena", GetEnvDefault("ARENA_PATH", ""), "Tiled .tmx arena, or a directory of them keyed by room id (empty = plain square map)")
	store := flag.String("store", GetEnvDefault("STORE", "gdata"), "Stats store: gdata or memory")
	appName := flag.String("app", "dragonsons", "gdata application name")
	secret := flag.String("secret", os.Getenv("INTENT_SECRET"), "HMAC key for signed intents (empty = unsigned)")
	tokenKey := flag.String("token-key", os.Getenv("TOKEN_KEY"), "HS256 key for rejoin tokens (empty = random per process)")
	logLevel := flag.String("log-level", GetEnvDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	otlp := flag.String("otlp", "", "OTLP gRPC endpoint (empty = "+telemetry.EndpointEnv+")")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level, err := telemetry.ParseLevel(*logLevel)
	if err != nil {
		fatal(err)
	}
	logger, shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{Service: "dragonsons", Level: level, Endpoint: *otlp})
	if err != nil {
		fatal(err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("err", err))
		}
	}()

	provider, err := config.NewProvider(*configPath, logger)
	if err != nil {
		fatal(err)
	}
	if *tickRate > 0 {
		if err := provider.OverrideTickRate(*tickRate); err != nil {
			fatal(err)
		}
	}

	arenaCfg, arenas, err := loadArenas(*arenaPath, logger)
	if err != nil {
		fatal(err)
	}

	stats, err := openStore(*store, *appName)
	if err != nil {
		fatal(err)
	}
	recorder := persist.NewRecorder(stats, logger, 64)

	tokens := session.NewTokenIssuer([]byte(*tokenKey))
	out := transport.NewOutbox(transport.DefaultQueueSize, logger)
	reg := room.NewRegistry(room.Deps{
		Config:  provider,
		Guard:   session.NewGuard([]byte(*secret)),
		Tokens:  tokens,
		Rejoin:  session.NewRejoinStore(tokens),
		Results: recorder,
		Board:   recorder,
		Arena:   arenaCfg,
		Arenas:  arenas,
		Logger:  logger,
	}, out)

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(*addr, strconv.FormatUint(uint64(*port), 10)),
		Handler:           jsonws.New(reg, out, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return provider.Watch(ctx, *watch) })
	g.Go(func() error { return recorder.Run(ctx) })
	g.Go(func() error { return reg.Run(ctx) })
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown initiated")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("err", err))
			return httpSrv.Close()
		}
		return nil
	})
	if *necsPort > 0 {
		necs := necsws.New(reg, out, logger)
		g.Go(func() error {
			// The necs transport has no shutdown hook; leave it to process exit.
			errc := make(chan error, 1)
			go func() { errc <- necs.Start(*necsPort) }()
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

// loadArenas reads path as a single map or, for a directory, one map per
// room keyed by file stem. A directory's "main" map, or else its first,
// becomes the default.
func loadArenas(path string, logger *slog.Logger) (world.Config, map[string]world.Config, error) {
	if path == "" {
		return world.Config{}, nil, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return world.Config{}, nil, err
	}
	if !fi.IsDir() {
		cfg, err := arena.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return world.Config{}, nil, err
		}
		logger.Info("arena loaded", slog.String("path", path),
			slog.Float64("width", cfg.Width), slog.Float64("height", cfg.Height))
		return cfg, nil, nil
	}

	arenas, names, err := arena.LoadDir(os.DirFS(path), ".")
	if err != nil {
		return world.Config{}, nil, err
	}
	def, ok := arenas[room.DefaultRoom]
	if !ok {
		def = arenas[names[0]]
	}
	logger.Info("arenas loaded", slog.String("dir", path), slog.Any("names", names))
	return def, arenas, nil
}

func openStore(kind, appName string) (persist.Store, error) {
	switch kind {
	case "memory":
		return persist.NewMemoryStore(), nil
	case "gdata":
		return persist.OpenGData(appName)
	}
	return nil, fmt.Errorf("unknown store %q", kind)
}

func fatal(err error) {
	slog.Error("startup failed", slog.Any("err", err))
	os.Exit(1)
}
