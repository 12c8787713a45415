// Package httpapi serves the bot's operational HTTP surface: health,
// metrics, and read-only account and position views.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/monitoring"
)

// Server exposes read-only bot state over HTTP. It never mutates trading
// state; all write paths stay inside the scheduler.
type Server struct {
	symbol  string
	gateway broker.Gateway
	health  *monitoring.HealthChecker
	log     *slog.Logger
	started time.Time
}

// NewServer creates the operational HTTP server.
func NewServer(symbol string, gateway broker.Gateway, health *monitoring.HealthChecker, log *slog.Logger) *Server {
	return &Server{
		symbol:  symbol,
		gateway: gateway,
		health:  health,
		log:     log.With("component", "httpapi"),
		started: time.Now(),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /healthz", s.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Symbol:  s.symbol,
		Gateway: s.gateway.Name(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.gateway.GetAccount(r.Context())
	if err != nil {
		s.log.Warn("account read failed", "error", err)
		writeError(w, http.StatusBadGateway, "account unavailable")
		return
	}
	writeJSON(w, AccountResponse{
		PortfolioValue: acct.PortfolioValue.String(),
		BuyingPower:    acct.BuyingPower.String(),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.gateway.GetPositions(r.Context())
	if err != nil {
		s.log.Warn("positions read failed", "error", err)
		writeError(w, http.StatusBadGateway, "positions unavailable")
		return
	}

	out := make([]PositionJSON, 0, len(positions))
	for _, p := range positions {
		out = append(out, PositionJSON{
			Symbol:        p.Symbol,
			Qty:           p.Qty.String(),
			AvgEntryPrice: p.AvgEntryPrice.String(),
			CurrentPrice:  p.CurrentPrice.String(),
			UnrealizedPL:  p.UnrealizedPL.String(),
		})
	}
	writeJSON(w, PositionsResponse{Positions: out})
}
