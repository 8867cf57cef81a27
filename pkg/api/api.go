package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deezer-search-widget/pkg/config"
	"deezer-search-widget/pkg/mcp"
	"deezer-search-widget/pkg/service"
	"deezer-search-widget/pkg/widget"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	serverName    = "deezer-search-widget"
	serverVersion = "1.0.0"
)

func ListenAndServe(cfg *config.Config) error {
	renderer, err := widget.NewRenderer(cfg.WidgetTemplateDir)
	if err != nil {
		logrus.WithError(err).Error("Error loading widget templates")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WidgetTemplateDir != "" {
		go func() {
			if err := renderer.Watch(ctx); err != nil {
				logrus.WithError(err).Error("Error watching widget templates")
			}
		}()
	}

	searcher := &service.DeezerHandler{
		HttpClient: &http.Client{Timeout: cfg.RequestTimeout},
		BaseURL:    cfg.DeezerAPIURL,
	}

	server := &http.Server{
		Handler:      wrap(cfg, route(cfg, searcher, renderer)),
		Addr:         cfg.ServerAddress,
		WriteTimeout: 20 * time.Second,
		ReadTimeout:  20 * time.Second,
	}
	shutdownGracefully(server, cancel)

	logrus.WithField("address", cfg.ServerAddress).Info("Starting API server...")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func wrap(cfg *config.Config, router http.Handler) http.Handler {
	headers := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", mcp.SessionHeader, mcp.ProtocolVersionHeader})
	exposed := handlers.ExposedHeaders([]string{mcp.SessionHeader})
	origins := handlers.AllowedOrigins(cfg.AllowedOrigins)
	methods := handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions})

	return handlers.CombinedLoggingHandler(logrus.StandardLogger().Writer(), handlers.CORS(headers, exposed, origins, methods)(router))
}

func route(cfg *config.Config, searcher service.Searcher, renderer *widget.Renderer) *mux.Router {
	mcpServer := newMCPServer(cfg, searcher, renderer)

	r := mux.NewRouter()

	r.HandleFunc("/health", checkHealth()).Methods(http.MethodGet)

	r.Handle("/mcp", mcpServer).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)

	r.HandleFunc("/", serveWidget(cfg, renderer)).Methods(http.MethodGet)
	r.HandleFunc("/widget/render", renderWidget(renderer)).Methods(http.MethodPost)
	r.HandleFunc("/widget/ws", widgetSocket(cfg, renderer)).Methods(http.MethodGet)

	return r
}

func newMCPServer(cfg *config.Config, searcher service.Searcher, renderer *widget.Renderer) *mcp.Server {
	server := mcp.NewServer(mcp.Options{
		Name:           serverName,
		Version:        serverVersion,
		Instructions:   cfg.MCPInstructions,
		Stateless:      cfg.MCPStateless,
		SessionTimeout: cfg.MCPSessionTimeout,
	})
	registerDeezerWidget(server, cfg, searcher, renderer)
	return server
}

func checkHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer closeRequestBody(r)
		respondWithSuccess(w, http.StatusOK, "API is running")
	}
}

func shutdownGracefully(server *http.Server, onShutdown func()) {
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		<-signals

		onShutdown()

		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.Info("Shutting down API server...")
		if err := server.Shutdown(c); err != nil {
			logrus.WithError(err).Error("Error shutting down server")
		}
	}()
}

func respondWithSuccess(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if body == nil {
		logrus.Error("Body is nil, unable to write response")
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Error encoding response")
	}
}

func respondWithHTML(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		logrus.WithError(err).Error("Error writing response")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if message == "" {
		logrus.Error("Body is nil, unable to write response")
		return
	}
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logrus.WithError(err).Error("Error encoding response")
	}
}

func closeRequestBody(req *http.Request) {
	if req.Body == nil {
		return
	}
	if err := req.Body.Close(); err != nil {
		logrus.WithError(err).Error("Error closing request body")
	}
}
