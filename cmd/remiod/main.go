// remiod runs the remote I/O dispatch engine against a simulated
// hypervisor. It is a development harness: a synthetic request
// generator stands in for guest domains, and a debug HTTP endpoint
// exposes metrics and domain state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ehrlich-b/go-remio"
	"github.com/ehrlich-b/go-remio/internal/config"
	"github.com/ehrlich-b/go-remio/internal/constants"
	"github.com/ehrlich-b/go-remio/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		domainID   = flag.Uint("domain", 0, "Domain id for the simulated guest")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remiod: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Set up logging
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.Format != "" {
		logConfig.Format = cfg.Log.Format
	}
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	transport := remio.NewMockTransport()
	notifier := remio.NewManualNotifier()

	disp, err := remio.New(remio.Params{
		Transport:  transport,
		Notifier:   notifier,
		MaxDomains: cfg.Dispatcher.MaxDomains,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create dispatcher", "error", err)
		os.Exit(1)
	}

	dom, err := disp.Attach(uint32(*domainID))
	if err != nil {
		logger.Error("failed to attach domain", "error", err, "domain", *domainID)
		os.Exit(1)
	}

	client, err := dom.Registry().Register("sim-device", remio.AddrRange{Start: 0x1000, End: 0x2000})
	if err != nil {
		logger.Error("failed to register client", "error", err)
		os.Exit(1)
	}
	if err := dom.Resume(); err != nil {
		logger.Error("failed to resume domain", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consumer: the device model end of the pipe.
	go func() {
		clog := logger.WithClient(client.Name())
		for {
			req, err := client.Pop(ctx)
			if err != nil {
				clog.Debug("consumer stopped", "reason", err)
				return
			}
			clog.Debug("handled request",
				"op", req.Op.String(),
				"addr", fmt.Sprintf("%#x", req.Addr),
				"value", req.Value,
				"request_id", req.RequestID)
		}
	}()

	// Generator: stands in for the hypervisor filling the shared queue
	// and raising the notification interrupt.
	go func() {
		var nextID atomic.Uint64
		ticker := time.NewTicker(constants.SimKickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				id := nextID.Add(1)
				transport.Enqueue(dom.ID(), remio.Request{
					Domain:    dom.ID(),
					Op:        remio.OpWrite,
					Addr:      0x1000 + (id%16)*8,
					Value:     id,
					RequestID: id,
				})
				notifier.Fire(dom.ID())
			}
		}
	}()

	var debugSrv *http.Server
	if cfg.Debug.Addr != "" {
		debugSrv = startDebugServer(cfg.Debug.Addr, disp, logger)
	}

	logger.Info("remiod running",
		"domain", dom.ID(),
		"client", client.Name(),
		"debug_addr", cfg.Debug.Addr)
	fmt.Printf("remiod: dispatching for domain %d, press Ctrl+C to stop\n", dom.ID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.DefaultPauseTimeout)
	defer shutdownCancel()

	if debugSrv != nil {
		if err := debugSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("debug server shutdown", "error", err)
		}
	}
	if err := disp.Close(shutdownCtx); err != nil {
		logger.Error("dispatcher close", "error", err)
		os.Exit(1)
	}

	snap := disp.MetricsSnapshot()
	logger.Info("final stats",
		"dispatched", snap.Dispatched,
		"dropped", snap.Dropped,
		"drain_passes", snap.DrainPasses)
}

func startDebugServer(addr string, disp *remio.Dispatcher, logger *logging.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, disp.MetricsSnapshot())
	})
	r.Get("/domains", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, disp.Domains())
	})

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("debug endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug server failed", "error", err)
		}
	}()
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
