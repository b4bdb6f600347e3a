package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server exposes the MiniApp REST API and, when configured, the static
// frontend bundle.
type Server struct {
	handlers  *Handlers
	addr      string
	staticDir string
	logger    *zap.Logger
}

func NewServer(handlers *Handlers, addr, staticDir string, logger *zap.Logger) *Server {
	return &Server{handlers: handlers, addr: addr, staticDir: staticDir, logger: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cryptocurrencies", s.handlers.GetCryptocurrencies)
	mux.HandleFunc("GET /api/candles", s.handlers.GetCandles)
	mux.HandleFunc("GET /api/alerts", s.handlers.ListAlerts)
	mux.HandleFunc("POST /api/alerts", s.handlers.CreateAlert)
	mux.HandleFunc("PUT /api/alerts/{id}", s.handlers.UpdateAlert)
	mux.HandleFunc("DELETE /api/alerts/{id}", s.handlers.DeleteAlert)

	if s.staticDir != "" {
		mux.Handle("/", spaHandler(s.staticDir))
	}

	return corsMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info("http server listening", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// corsMiddleware allows the Telegram MiniApp webview to call the API from any
// origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files from dir, falling back to index.html for paths the
// single-page frontend routes client-side.
func spaHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}
		if _, err := http.Dir(dir).Open(r.URL.Path); err != nil {
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	})
}
