// Package main is the entry point for the mdvault server.
//
// mdvault is a filesystem-backed store for a tree of markdown documents and
// uploaded binary assets, exposed over a RESTful HTTP API to a browser-based
// editor. Configuration is read from CLI flags and config.json in the data
// directory.
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
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/crypto/bcrypt"

	"github.com/mdvault/mdvault/internal/server"
	"github.com/mdvault/mdvault/internal/storage"
	"github.com/mdvault/mdvault/internal/storage/assets"
	"github.com/mdvault/mdvault/internal/watch"
)

const version = "1.0.0"

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mdvault: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	printVersion := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	editPassword := flag.String("set-edit-password", "", "Set the edit password, save it to config.json and continue")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *printVersion {
		fmt.Printf("mdvault %s\n", version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ll := &slog.LevelVar{}
	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level: %s", *logLevel)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	configPath := filepath.Join(*dataDir, "config.json")
	cfg, err := storage.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if *editPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*editPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash edit password: %w", err)
		}
		cfg.EditPasswordHash = string(hash)
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		slog.Info("Edit password updated")
	}

	store, err := storage.New(storage.DefaultConfig(filepath.Join(*dataDir, "store")))
	if err != nil {
		return err
	}
	assetSvc := assets.NewService(store)

	watcher, err := watch.New(store.Root())
	if err != nil {
		// The store works without live change events.
		slog.Warn("Change watching unavailable", "err", err)
		watcher = nil
	} else {
		go watcher.Run(ctx)
	}

	srv := &http.Server{
		Addr:              *httpAddr,
		Handler:           server.NewRouter(store, assetSvc, watcher, cfg, version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", *httpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", *httpAddr, err)
	}
	slog.Info("Server listening", "addr", ln.Addr().String(), "root", store.Root(), "auth", cfg.EditPasswordHash != "")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
