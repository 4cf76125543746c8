package main

// Router construction for the node's HTTP surface (§6).
//
// Grounded on the teacher's cmd/xchainserver/server/routes.go
// (NewRouter wires middleware then one HandleFunc per endpoint).

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (a *api) routes(logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	r.HandleFunc("/head", a.head).Methods(http.MethodGet)
	r.HandleFunc("/block/{n}", a.block).Methods(http.MethodGet)
	r.HandleFunc("/validator", a.validator).Methods(http.MethodGet)
	r.HandleFunc("/chain", a.chainInfo).Methods(http.MethodGet)
	r.HandleFunc("/nonce/{addr}", a.nonce).Methods(http.MethodGet)
	r.HandleFunc("/canonical", a.canonical).Methods(http.MethodPost)
	r.HandleFunc("/call", a.call).Methods(http.MethodPost)
	r.HandleFunc("/query", a.query).Methods(http.MethodGet)
	r.HandleFunc("/consensus/config", a.consensusConfig).Methods(http.MethodGet)
	r.HandleFunc("/consensus/commit", a.consensusCommit).Methods(http.MethodPost)
	r.Handle("/metrics", a.metricsHandler()).Methods(http.MethodGet)

	return r
}

func requestLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}
