// laudod is an HTTP service that exports forensic engineering reports.
//
// Endpoints:
//
//	GET  /health                          Liveness and database status
//	POST /reports/{format}                Render the case record in the body (pdf or docx)
//	GET  /cases/{id}/report.{format}      Render a case from the database
//	PUT  /cases/{id}/flammable-products   Replace the flammable products of a case
//
// Export endpoints accept ?type=insalubridade|periculosidade|completo and ?safe_mode=true.
// The response is the document as an attachment named laudo_{process}_{date}.{format}.
//
// Usage:
//
//	laudod -config laudo.yml [-addr :8080]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/casestore"
	"github.com/gardar/laudo/pkg/settings"
)

func main() {
	configPath := flag.String("config", "", "Path to the settings YAML file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := settings.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	s := &server{opts: cfg.ExportOptions(log), log: log}
	if cfg.Database.DSN != "" {
		store, err := casestore.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatal("failed to open case database", zap.Error(err))
		}
		defer store.Close()
		s.store = store
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("starting", zap.String("addr", cfg.Server.Addr), zap.Bool("database", s.store != nil))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("listen failed", zap.Error(err))
	}
}
