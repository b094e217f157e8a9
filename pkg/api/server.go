// Package api tscap REST API
//
// @title           tscap REST API
// @version         1.0.0
// @description     Timestamp codec and packet capture store.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

const (
	statsRefreshInterval = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
)

const swaggerIndex = `<!DOCTYPE html>
<html>
<head>
	<title>tscap API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
		window.onload = function() {
			SwaggerUIBundle({
				url: '/swagger/swagger.json',
				dom_id: '#swagger-ui',
				presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.presets.standalone]
			});
		};
	</script>
</body>
</html>`

// NewRouter builds the HTTP routes for server. metricsHandler serves /metrics;
// nil leaves the route out.
func NewRouter(server *Server, metricsHandler http.Handler) chi.Router {
	m := server.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Codec
		r.Get("/timestamps/pack", m.InstrumentHandler("GET", "/api/v1/timestamps/pack", server.handlePack))
		r.Get("/timestamps/unpack", m.InstrumentHandler("GET", "/api/v1/timestamps/unpack", server.handleUnpack))
		r.Post("/hexdump", m.InstrumentHandler("POST", "/api/v1/hexdump", server.handleHexDump))

		// Capture store
		r.Post("/packets", m.InstrumentHandler("POST", "/api/v1/packets", server.handlePutPacket))
		r.Post("/packets/batch", m.InstrumentHandler("POST", "/api/v1/packets/batch", server.handlePutBatch))
		r.Get("/packets", m.InstrumentHandler("GET", "/api/v1/packets", server.handleListPackets))
		r.Get("/packets/{id}", m.InstrumentHandler("GET", "/api/v1/packets/{id}", server.handleGetPacket))
		r.Delete("/packets", m.InstrumentHandler("DELETE", "/api/v1/packets", server.handleTrim))

		// Diagnostics
		r.Get("/stats", m.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))
	})

	r.Get("/swagger/*", serveSwagger)

	return r
}

func serveSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerIndex))
	case "/swagger/swagger.json", "/swagger/doc.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

// StartServer serves the API until ctx is cancelled
func StartServer(ctx context.Context, store PacketStore, config ServerConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if host, port, err := net.SplitHostPort(config.Addr); err == nil {
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		SwaggerInfo.Host = net.JoinHostPort(host, port)
	}

	metrics := NewMetrics(prometheus.DefaultRegisterer)
	server := NewServer(store, config, metrics, logger)
	handler := NewRouter(server, promhttp.Handler())

	go server.startMetricsUpdater(ctx, statsRefreshInterval)

	logger.Info("starting tscap REST API server", "addr", config.Addr)
	return Run(ctx, config.Addr, handler, logger)
}

// Run serves handler on addr and shuts down gracefully when ctx is cancelled
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down tscap REST API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// startMetricsUpdater refreshes store gauges until ctx is cancelled
func (s *Server) startMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.refreshStoreStats(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshStoreStats(ctx)
		}
	}
}

func (s *Server) refreshStoreStats(ctx context.Context) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("failed to refresh store stats", "error", err)
		}
		return
	}
	s.metrics.UpdateStoreStats(st)
}
