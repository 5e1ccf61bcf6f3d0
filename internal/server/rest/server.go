// Package rest exposes the vault operations over an HTTP JSON API. The
// server wires the business services to method-qualified mux routes; all
// routes except register, login and the share validate/redeem pair sit
// behind the bearer-token middleware.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clione/sikre/internal/logging"
	"github.com/clione/sikre/internal/server/auth"
	"github.com/clione/sikre/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address       string
	logger        logging.Logger
	users         *services.UserService
	vault         *services.VaultService
	shares        *services.ShareService
	authenticator *auth.Authenticator
}

func NewServer(a string, l logging.Logger, us *services.UserService, vs *services.VaultService, ss *services.ShareService) *Server {
	return &Server{
		address:       a,
		logger:        l.With("module", "rest_server"),
		users:         us,
		vault:         vs,
		shares:        ss,
		authenticator: us.Authenticator(),
	}
}

// Handler builds the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("GET /api/shares/{token}", s.validateShare)
	mux.HandleFunc("POST /api/shares/{token}/redeem", s.redeemShare)

	mux.Handle("GET /api/groups", s.withAuth(s.listGroups))
	mux.Handle("POST /api/groups", s.withAuth(s.createGroup))
	mux.Handle("POST /api/groups/{id}/users", s.withAuth(s.addGroupUser))
	mux.Handle("GET /api/groups/{id}/items", s.withAuth(s.listGroupItems))
	mux.Handle("POST /api/groups/{id}/items", s.withAuth(s.addGroupItem))

	mux.Handle("GET /api/items", s.withAuth(s.listItems))
	mux.Handle("POST /api/items", s.withAuth(s.createItem))
	mux.Handle("GET /api/items/{id}", s.withAuth(s.getItem))

	mux.Handle("POST /api/services", s.withAuth(s.createService))

	mux.Handle("POST /api/shares", s.withAuth(s.issueShare))

	return mux
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
