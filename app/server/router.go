// Package server wires the HTTP surface: routes, auth gates and the
// cross-cutting middleware chain.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/app/auth"
	"github.com/aubertin/purchasing-backend/app/catalog"
	"github.com/aubertin/purchasing-backend/app/categories"
	"github.com/aubertin/purchasing-backend/app/orders"
	"github.com/aubertin/purchasing-backend/app/users"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	AuthMW     *auth.Middleware
	Users      *users.Handler
	Catalog    *catalog.CatalogHandler
	Categories *categories.CategoryHandler
	Orders     *orders.Handler
}

// Router builds the /api route tree.
func Router(h Handlers, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	s := r.PathPrefix("/api").Subrouter()

	s.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	s.HandleFunc("/login_check", h.Auth.HandleLogin).Methods(http.MethodPost)

	// Everything below requires a bearer token.
	authed := s.NewRoute().Subrouter()
	authed.Use(h.AuthMW.Authenticate)

	authed.HandleFunc("/authenticated", h.Auth.HandleAuthenticated).Methods(http.MethodGet)

	authed.HandleFunc("/orders", h.Orders.HandleList).Methods(http.MethodGet)
	authed.HandleFunc("/orders", h.Orders.HandleCreate).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}", h.Orders.HandleGet).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}", h.Orders.HandleUpdate).Methods(http.MethodPut)
	authed.HandleFunc("/orders/{id}", h.Orders.HandlePatch).Methods(http.MethodPatch)
	authed.HandleFunc("/orders/{id}", h.Orders.HandleDelete).Methods(http.MethodDelete)

	authed.HandleFunc("/products", h.Catalog.HandleGet).Methods(http.MethodGet)
	authed.HandleFunc("/products/{id}", h.Catalog.HandleGetProduct).Methods(http.MethodGet)
	authed.HandleFunc("/categories", h.Categories.HandleGetAll).Methods(http.MethodGet)
	authed.HandleFunc("/categories/{id}", h.Categories.HandleGet).Methods(http.MethodGet)

	authed.HandleFunc("/users/{id}", h.Users.HandleGet).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", h.Users.HandlePatch).Methods(http.MethodPatch)

	// Catalog and user administration.
	admin := s.NewRoute().Subrouter()
	admin.Use(h.AuthMW.Authenticate, h.AuthMW.RequireAdmin)

	admin.HandleFunc("/products", h.Catalog.HandleCreate).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id}", h.Catalog.HandlePatch).Methods(http.MethodPatch)
	admin.HandleFunc("/products/{id}", h.Catalog.HandleDelete).Methods(http.MethodDelete)

	admin.HandleFunc("/categories", h.Categories.HandleCreate).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", h.Categories.HandleUpdate).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", h.Categories.HandleDelete).Methods(http.MethodDelete)

	admin.HandleFunc("/users", h.Users.HandleList).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.Users.HandleCreate).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", h.Users.HandleDelete).Methods(http.MethodDelete)

	return requestIDMiddleware(logMiddleware(corsMiddleware(allowedOrigins)(r)))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
