package internal

import (
	"context"
	"fmt"
	"net/http"

	"vendor-management-api/internal/auth"
	"vendor-management-api/internal/config"
	"vendor-management-api/internal/models"
	"vendor-management-api/pkg/importer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Store is the persistence the HTTP handlers depend on. *store.Store
// implements it against Postgres.
type Store interface {
	Ping(ctx context.Context) error

	ListVendors(ctx context.Context, f models.VendorFilter) ([]models.Vendor, int, error)
	GetVendor(ctx context.Context, id int64) (models.Vendor, error)
	VendorByCode(ctx context.Context, code string) (models.Vendor, error)
	CreateVendor(ctx context.Context, in models.CreateVendorRequest) (models.Vendor, error)
	UpdateVendor(ctx context.Context, id int64, in models.UpdateVendorRequest) (models.Vendor, error)
	DeleteVendor(ctx context.Context, id int64) error
	VendorPerformance(ctx context.Context, id int64) (models.Performance, error)
	VendorHistory(ctx context.Context, id int64, limit, offset int) ([]models.HistoricalPerformance, int, error)

	ListPurchaseOrders(ctx context.Context, f models.PurchaseOrderFilter) ([]models.PurchaseOrder, int, error)
	GetPurchaseOrder(ctx context.Context, id int64) (models.PurchaseOrder, error)
	CreatePurchaseOrder(ctx context.Context, in models.CreatePurchaseOrderRequest) (models.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, id int64, in models.UpdatePurchaseOrderRequest) (models.PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, id int64) error
	AcknowledgePurchaseOrder(ctx context.Context, id int64) (models.PurchaseOrder, error)
}

type Server struct {
	Store      Store
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Mapping    *importer.Mapping
	Log        *zap.Logger
}

// NewServer wires the router. metrics may be nil when the caller does not
// need to share the registry with the recalculator.
func NewServer(st Store, cfg *config.Config, log *zap.Logger, metrics *Metrics) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	mapping, err := importer.LoadMapping(cfg.ImportMapping)
	if err != nil {
		return nil, fmt.Errorf("load import mapping: %w", err)
	}

	s := &Server{
		Store:   st,
		Router:  chi.NewRouter(),
		Metrics: metrics,
		Mapping: mapping,
		Log:     log,
	}

	if cfg.AuthEnabled {
		s.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
		if err := s.JWTManager.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("jwt configuration: %w", err)
		}
	}

	s.Router.Use(middleware.StripSlashes)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(RequestIDMiddleware(log))
	s.Router.Use(AccessLogMiddleware)
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Public routes
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", s.dbPing)

	s.Router.Group(func(r chi.Router) {
		if s.JWTManager != nil {
			r.Use(auth.AuthMiddleware(s.JWTManager))
		}
		s.mountRoutes(r)
		r.Route("/api", s.mountRoutes)
	})

	return s, nil
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// write guards mutating routes with the manager role when auth is on.
func (s *Server) write(h http.HandlerFunc) http.HandlerFunc {
	if s.JWTManager == nil {
		return h
	}
	return auth.MustRole(auth.RoleManager)(h).ServeHTTP
}

func (s *Server) mountRoutes(r chi.Router) {
	r.Get("/vendors", s.listVendors)
	r.Post("/vendors", s.write(s.createVendor))
	r.Get("/vendors/{id}", s.getVendor)
	r.Put("/vendors/{id}", s.write(s.updateVendor))
	r.Delete("/vendors/{id}", s.write(s.deleteVendor))
	r.Get("/vendors/{id}/performance", s.getVendorPerformance)
	r.Get("/vendors/{id}/history", s.listVendorHistory)

	r.Get("/purchase_orders", s.listPurchaseOrders)
	r.Post("/purchase_orders", s.write(s.createPurchaseOrder))
	r.Get("/purchase_orders/{id}", s.getPurchaseOrder)
	r.Put("/purchase_orders/{id}", s.write(s.updatePurchaseOrder))
	r.Delete("/purchase_orders/{id}", s.write(s.deletePurchaseOrder))
	r.Post("/purchase_orders/{id}/acknowledge", s.write(s.acknowledgePurchaseOrder))

	r.Post("/imports/purchase_orders", s.write(s.importPurchaseOrders))
}
