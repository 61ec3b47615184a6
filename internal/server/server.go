// Package server exposes the analytics façade as a plain HTTP JSON API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"chainlens/internal/analytics"
)

type Server struct {
	svc  *analytics.Service
	port string
	cors []string
}

func New(svc *analytics.Service, port string, corsOrigins []string) *Server {
	if port == "" {
		port = "8080"
	}
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Server{svc: svc, port: port, cors: corsOrigins}
}

// Handler builds the full route table wrapped in cors and request-id
// middleware. Exposed separately from Run for httptest.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/network/stats", s.handleNetworkStats).Methods("GET")
	api.HandleFunc("/network/gas", s.handleGas).Methods("GET")
	api.HandleFunc("/transactions/analysis", s.handleTxAnalysis).Methods("GET")
	api.HandleFunc("/transactions/whales", s.handleWhales).Methods("GET")
	api.HandleFunc("/contracts/active", s.handleActiveContracts).Methods("GET")
	api.HandleFunc("/contracts/types", s.handleContractTypes).Methods("GET")
	api.HandleFunc("/contracts/deployments", s.handleDeployments).Methods("GET")
	api.HandleFunc("/functions/popular", s.handlePopularFunctions).Methods("GET")
	api.HandleFunc("/defi/volume", s.handleDeFiVolume).Methods("GET")
	api.HandleFunc("/ecosystem", s.handleEcosystem).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.cors,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return requestID(c.Handler(r))
}

// Run blocks serving the API.
func (s *Server) Run() error {
	l := log.WithField("port", s.port)
	l.Info("HTTP gateway listening")

	srv := &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // scans are slow by design
	}
	return srv.ListenAndServe()
}

// requestID tags every request with a correlation id for the logs.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"request_id": id,
			"path":       r.URL.Path,
			"took":       time.Since(start).Round(time.Millisecond),
		}).Info("request served")
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleNetworkStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.NetworkStats(r.Context()))
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GasSnapshot(r.Context()))
}

func (s *Server) handleTxAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.AnalyzeTransactions(r.Context(), queryInt(r, "blocks", 0)))
}

func (s *Server) handleWhales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.DetectWhales(r.Context(), queryInt(r, "blocks", 0), queryFloat(r, "threshold", 0)))
}

func (s *Server) handleActiveContracts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.DiscoverActiveContracts(r.Context(), queryInt(r, "blocks", 0)))
}

func (s *Server) handleContractTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.ContractsByType(r.Context(), queryInt(r, "blocks", 0)))
}

func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.NewDeployments(r.Context(), queryInt(r, "blocks", 0), queryInt(r, "hours", 0)))
}

func (s *Server) handlePopularFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.PopularFunctions(r.Context(), queryInt(r, "blocks", 0), queryInt(r, "limit", 10)))
}

func (s *Server) handleDeFiVolume(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.DeFiVolume(r.Context(), queryInt(r, "blocks", 0)))
}

func (s *Server) handleEcosystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.EcosystemSummary(r.Context(), queryInt(r, "blocks", 0)))
}
