package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/infra/i18n"
	"vpn-subscription-backend/internal/infra/security"
	"vpn-subscription-backend/internal/usecase"
)

type Server struct {
	payment usecase.PaymentFlow
	trial   usecase.PaymentFlow
	pages   usecase.PageUseCase
	coupons usecase.CouponUseCase
	tariffs usecase.TariffUseCase
	stats   usecase.StatsUseCase

	enc  *security.EncryptionService
	auth *AuthManager
	i18n *i18n.Bundle

	frontendBaseURL string
	log             *zerolog.Logger

	httpServer *http.Server
}

func NewServer(
	payment usecase.PaymentFlow,
	trial usecase.PaymentFlow,
	pages usecase.PageUseCase,
	coupons usecase.CouponUseCase,
	tariffs usecase.TariffUseCase,
	stats usecase.StatsUseCase,
	enc *security.EncryptionService,
	auth *AuthManager,
	bundle *i18n.Bundle,
	frontendBaseURL string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payment:         payment,
		trial:           trial,
		pages:           pages,
		coupons:         coupons,
		tariffs:         tariffs,
		stats:           stats,
		enc:             enc,
		auth:            auth,
		i18n:            bundle,
		frontendBaseURL: frontendBaseURL,
		log:             logger,
	}
}

// Router assembles the public payment API plus the admin surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	// The storefront serves language-prefixed pages; the webhook and admin
	// surfaces are prefix-free.
	r.Route("/payment", func(r chi.Router) {
		s.paymentRoutes(r)
		// The gateway webhook has no language-prefixed variant.
		r.Get("/confirmation/freekassa", s.confirmationHandler())
	})
	r.Route("/{lang:[a-z]{2}}/payment", func(r chi.Router) { s.paymentRoutes(r) })

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/api/v1/admin/login", s.loginHandler())
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/v1/admin/stats", s.statsHandler())
	})

	r.NotFound(s.notFoundHandler())
	return r
}

func (s *Server) paymentRoutes(r chi.Router) {
	r.Get("/create/freekassa", s.createFreekassaHandler())
	r.Post("/create/trial", s.createTrialHandler())
	r.Get("/check_coupon", s.checkCouponHandler())
	r.Get("/tariffs", s.tariffsHandler())
	r.Get("/success", s.successHandler())
	r.Get("/fail", s.failHandler())
}

// Start runs the HTTP server until ctx is cancelled, then drains.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(base *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			base.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("http request")
		})
	}
}

// clientIP prefers the proxy-forwarded address, falling back to the socket
// peer. middleware.RealIP already rewrites RemoteAddr for trusted headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// requestLang resolves the language-prefix path parameter, defaulting to
// English for prefix-free routes and unsupported codes.
func (s *Server) requestLang(r *http.Request) string {
	lang := chi.URLParam(r, "lang")
	if lang == "" || !s.i18n.Supported(lang) {
		return "en"
	}
	return lang
}
