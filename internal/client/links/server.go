package links

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/logging"
	"github.com/yudo-scheduler/yudo/internal/netx"
)

// Handler receives every link opened against the listener.
type Handler func(ctx context.Context, l Link) error

// Server is the loopback listener for e-mailed links.
type Server struct {
	address string
	handle  Handler
	logger  logging.Logger
	router  *mux.Router
}

func NewServer(address string, l logging.Logger, h Handler) *Server {
	s := &Server{
		address: address,
		handle:  h,
		logger:  l.With("module", "link_listener"),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/quicklogin", s.topLevelOnly(s.linkHandler(KindQuickLogin, "token"))).Methods(http.MethodGet)
	r.HandleFunc("/reset", s.topLevelOnly(s.linkHandler(KindReset, "resetId"))).Methods(http.MethodGet)
	r.HandleFunc("/auth", s.topLevelOnly(s.linkHandler(KindReset, "resetId"))).Methods(http.MethodGet)
	return r
}

// ServeHTTP lets the router be driven directly, e.g. by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// topLevelOnly refuses requests a browser reports as coming from another
// site or from a subresource load (img, fetch, iframe), so a web page cannot
// log the terminal into another account.
func (s *Server) topLevelOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reason := foreignRequest(r); reason != "" {
			s.logger.Warn(r.Context(), "link request refused", "reason", reason)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// foreignRequest returns why r is not a top-level navigation from this
// machine, or "" when it is acceptable. Clients that send none of the fetch
// metadata headers (curl, older browsers) are accepted.
func foreignRequest(r *http.Request) string {
	if site := r.Header.Get("Sec-Fetch-Site"); strings.EqualFold(site, "cross-site") {
		return "cross-site request"
	}
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" && !strings.EqualFold(mode, "navigate") {
		return "not a navigation"
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || !netx.IsLoopback(u.Hostname()) {
			return "foreign origin"
		}
	}
	return ""
}

func (s *Server) linkHandler(kind Kind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get(param))
		if token == "" {
			http.Error(w, "missing "+param, http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		s.logger.Info(ctx, "link received", "kind", kind)

		if err := s.handle(ctx, Link{Kind: kind, Token: token}); err != nil {
			s.logger.Warn(ctx, "link rejected", "kind", kind, "error", err)
			status := http.StatusInternalServerError
			if errors.Is(err, common.ErrBusy) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "Link received. You can return to your terminal.")
	}
}

// Run serves until ctx is done. The address must be a loopback address.
func (s *Server) Run(ctx context.Context) error {
	listen, err := netx.ListenLoopback(s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on an existing listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping link listener...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting link listener", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
