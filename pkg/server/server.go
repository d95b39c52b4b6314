// Package server exposes the published artifacts over a local JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supplysight/sctl/pkg/data"
	"github.com/supplysight/sctl/pkg/model"
)

const (
	shutdownWaitSeconds = 5
	timeoutSeconds      = 300
	maxHeaderBytes      = 20

	// PortDefault is the default listen port for the local API.
	PortDefault = 8080
)

// Serve runs the API on 127.0.0.1:port until an interrupt or until ctx is
// canceled, then shuts down gracefully.
func Serve(ctx context.Context, db *data.DB, store data.Store, port int) error {
	address := fmt.Sprintf("127.0.0.1:%d", port)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(db, store),
		ReadTimeout:    timeoutSeconds * time.Second,
		WriteTimeout:   timeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << maxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	select {
	case <-done:
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func makeRouter(db *data.DB, store data.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", stateAPIHandler(db, store))
	mux.HandleFunc("GET /api/summary", artifactAPIHandler(store, data.KindSummary))
	mux.HandleFunc("GET /api/risk", artifactAPIHandler(store, data.KindRiskReport))
	mux.HandleFunc("GET /api/anomalies", artifactAPIHandler(store, data.KindAnomalyReport))
	mux.HandleFunc("GET /api/clusters", artifactAPIHandler(store, data.KindClusterReport))
	mux.HandleFunc("GET /api/models", artifactAPIHandler(store, data.KindModelComparison))
	mux.HandleFunc("GET /api/model", modelAPIHandler(store))

	return mux
}

// artifactAPIHandler serves one tabular artifact. Artifacts that have not
// been computed yet return 404 rather than an empty table.
func artifactAPIHandler(store data.Store, kind data.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		t, err := store.Read(kind)
		if errors.Is(err, data.ErrArtifactNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s not yet computed, run the pipeline first", kind))
			return
		}
		if err != nil {
			slog.Error("failed to read artifact", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read artifact")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func modelAPIHandler(store data.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b, err := store.ReadRaw(data.KindModel)
		if errors.Is(err, data.ErrArtifactNotFound) {
			writeError(w, http.StatusNotFound, "model not yet trained, run the pipeline first")
			return
		}
		if err != nil {
			slog.Error("failed to read model artifact", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read model artifact")
			return
		}

		a, err := model.DecodeArtifact(b)
		if err != nil {
			slog.Error("failed to decode model artifact", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to decode model artifact")
			return
		}

		// Metadata only, the fitted parameters stay private to predict.
		writeJSON(w, http.StatusOK, map[string]any{
			"model":      a.Model,
			"created_at": a.CreatedAt,
			"version":    a.Version,
		})
	}
}

func stateAPIHandler(db *data.DB, store data.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s, err := data.GetState(db, store)
		if err != nil {
			slog.Error("failed to get state", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get state")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
