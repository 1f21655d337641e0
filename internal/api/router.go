// Package api is the REST surface of the franchise service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"franchise-service/internal/common/logger"
	"franchise-service/internal/franchise"
)

// ReadinessCheck reports whether the backing store can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Franchises     franchise.Service
	Logger         logger.Logger
	ServiceName    string
	Version        string
	Ready          ReadinessCheck
	RequestTimeout time.Duration
}

// Handler serves the franchise routes.
type Handler struct {
	service        franchise.Service
	logger         logger.Logger
	serviceName    string
	version        string
	ready          ReadinessCheck
	requestTimeout time.Duration
}

// NewRouter wires every route of the service, including /ready and /metrics.
func NewRouter(opts Options) http.Handler {
	h := &Handler{
		service:        opts.Franchises,
		logger:         opts.Logger,
		serviceName:    opts.ServiceName,
		version:        opts.Version,
		ready:          opts.Ready,
		requestTimeout: opts.RequestTimeout,
	}
	if h.logger == nil {
		h.logger = logger.NewNoOpLogger()
	}

	r := mux.NewRouter()
	r.Use(h.metricsMiddleware, h.timeoutMiddleware)

	r.HandleFunc("/ready", h.readiness).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api.HandleFunc("/franchises", h.createFranchise).Methods(http.MethodPost)
	api.HandleFunc("/franchises", h.listFranchises).Methods(http.MethodGet)
	api.HandleFunc("/franchises/{franchiseId}", h.getFranchise).Methods(http.MethodGet)
	api.HandleFunc("/franchises/{franchiseId}", h.franchiseExists).Methods(http.MethodHead)
	api.HandleFunc("/franchises/{franchiseId}", h.deleteFranchise).Methods(http.MethodDelete)
	api.HandleFunc("/franchises/{franchiseId}/name", h.updateFranchiseName).Methods(http.MethodPut)
	api.HandleFunc("/franchises/{franchiseId}/products/max-stock", h.maxStockProducts).Methods(http.MethodGet)

	api.HandleFunc("/franchises/{franchiseId}/branches", h.addBranch).Methods(http.MethodPost)
	api.HandleFunc("/franchises/{franchiseId}/branches/{branchId}", h.removeBranch).Methods(http.MethodDelete)
	api.HandleFunc("/franchises/{franchiseId}/branches/{branchId}/name", h.updateBranchName).Methods(http.MethodPut)

	products := "/franchises/{franchiseId}/branches/{branchId}/products"
	api.HandleFunc(products, h.addProduct).Methods(http.MethodPost)
	api.HandleFunc(products+"/{productId}", h.removeProduct).Methods(http.MethodDelete)
	api.HandleFunc(products+"/{productId}/stock", h.updateProductStock).Methods(http.MethodPut)
	api.HandleFunc(products+"/{productId}/name", h.updateProductName).Methods(http.MethodPut)

	return h.logMiddleware(r)
}
