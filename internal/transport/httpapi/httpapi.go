package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTP-триггер закупки: POST /api/run выполняет один запуск и возвращает
// его структурный результат как есть ({statusCode, body} изнутри
// разворачивается в статус ответа и JSON-тело).

type RunFacade interface {
	Run(ctx context.Context, trigger any) (statusCode int, body map[string]any)
}

type Server struct {
	addr   string
	flow   RunFacade
	log    zerolog.Logger
	server *http.Server
}

func New(addr string, flow RunFacade, log zerolog.Logger) *Server {
	return &Server{addr: addr, flow: flow, log: log}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/run", s.handleRun)
	return withCORS(mux)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", s.addr).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	// Триггер непрозрачен: тело читаем, но не трактуем
	var trigger any
	_ = json.NewDecoder(r.Body).Decode(&trigger)

	// Запуск ходит на биржу несколько раз подряд, таймаут с запасом
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	status, body := s.flow.Run(ctx, trigger)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
