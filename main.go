package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/sectornet/commander-server/game"
	"github.com/sectornet/commander-server/server"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Path to game_config.json" default:""`
	Port    int    `short:"p" long:"port" description:"Listen port (overrides config)" default:"0"`
	Saves   string `long:"saves" description:"Saves root directory (overrides config)" default:""`
	Verbose bool   `short:"v" long:"verbose" description:"Debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	cfg, err := game.LoadConfig(opts.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if opts.Port > 0 {
		cfg.ServerPort = opts.Port
	}
	if opts.Saves != "" {
		cfg.SavesRoot = opts.Saves
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server construction failed")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	httpSrv := &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("sector commander server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("server stopped")
}
