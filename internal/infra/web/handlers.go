package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/infra/metrics"
)

const emailCookieName = "email_cookie"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// createFreekassaHandler serves the paid order flow: validate, price, create
// the pending transaction and hand back the gateway's hosted-payment URL.
func (s *Server) createFreekassaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := s.requestLang(r)
		q := r.URL.Query()

		plan, _ := strconv.Atoi(q.Get("plan"))
		pc := &model.PaymentContext{
			Email:    q.Get("email"),
			Coupon:   q.Get("coupon"),
			Plan:     plan,
			Lang:     lang,
			IP:       clientIP(r),
			Currency: q.Get("currency"),
		}
		if pc.Currency == "" {
			pc.Currency = "freekassa"
		}

		res, err := s.payment.Create(r.Context(), pc)
		if err != nil {
			s.writeCreateError(w, r, lang, err)
			return
		}

		s.setEmailCookie(w, pc.Email)
		writeJSON(w, http.StatusOK, res)
	}
}

// createTrialHandler provisions a zero-cost account from {"email": ...}.
func (s *Server) createTrialHandler() http.HandlerFunc {
	type trialRequest struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		lang := s.requestLang(r)

		var req trialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: 1, Message: "invalid request body"})
			return
		}

		pc := &model.PaymentContext{
			Email:    req.Email,
			Lang:     lang,
			IP:       clientIP(r),
			Currency: "free",
		}
		if _, err := s.trial.Create(r.Context(), pc); err != nil {
			s.writeCreateError(w, r, lang, err)
			return
		}

		s.setEmailCookie(w, pc.Email)
		writeJSON(w, http.StatusOK, model.TrialResult{Status: "OK"})
	}
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, lang string, err error) {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		http.Redirect(w, r, s.frontendBaseURL+"/"+lang+"/vpn/payment/fail", http.StatusFound)
	case errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrNoPlanSelected),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrBlacklistedEmail),
		errors.Is(err, domain.ErrTrialAlreadySent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: 1, Message: err.Error()})
	default:
		s.log.Error().Err(err).Msg("order creation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   1,
			Message: s.i18n.For(lang).T("vpn.order.error.internal-error"),
		})
	}
}

// confirmationHandler answers the gateway webhook with the literal body it
// expects: "YES" or "ERROR: <reason>".
func (s *Server) confirmationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := model.ParseConfirmPayload(r.URL.Query(), clientIP(r))
		if err != nil {
			metrics.IncWebhookRejection("bad_payload")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ERROR: " + err.Error()))
			return
		}

		body := s.payment.Confirm(r.Context(), payload)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

// checkCouponHandler speaks the storefront's tri-state protocol: "1" for no
// coupon supplied, "0" for an unusable one, and {percent, prolong} otherwise.
func (s *Server) checkCouponHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("coupon")
		plan, _ := strconv.Atoi(q.Get("tariff"))

		cc, err := s.coupons.Evaluate(r.Context(), code, plan)
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidCoupon) {
				s.log.Error().Err(err).Msg("coupon check failed")
			}
			metrics.IncCouponCheck("invalid")
			writeJSON(w, http.StatusOK, 0)
			return
		}
		if cc == nil {
			metrics.IncCouponCheck("empty")
			writeJSON(w, http.StatusOK, 1)
			return
		}
		metrics.IncCouponCheck("ok")
		writeJSON(w, http.StatusOK, cc)
	}
}

func (s *Server) tariffsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tariffs, err := s.tariffs.List(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("tariff list failed")
			http.Error(w, "Failed to list tariffs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, tariffs)
	}
}

func (s *Server) successHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := s.emailCookieValue(r)
		msg, err := s.pages.Success(r.Context(), s.decryptEmail(cookie), cookie)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.writeNotFound(w, s.requestLang(r))
				return
			}
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func (s *Server) failHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := s.emailCookieValue(r)
		writeJSON(w, http.StatusOK, s.pages.Fail(r.Context(), s.decryptEmail(cookie)))
	}
}

func (s *Server) loginHandler() http.HandlerFunc {
	type loginRequest struct {
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.auth.CheckPassword(req.Password) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := s.stats.Totals(ctx)
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}
		week, month, year, err := s.stats.Revenue(ctx)
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}

		response := struct {
			TotalUsers int `json:"total_users"`
			Revenue    struct {
				Week  decimal.Decimal `json:"week"`
				Month decimal.Decimal `json:"month"`
				Year  decimal.Decimal `json:"year"`
			} `json:"revenue"`
		}{TotalUsers: users}
		response.Revenue.Week = week
		response.Revenue.Month = month
		response.Revenue.Year = year

		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeNotFound(w, s.requestLang(r))
	}
}

func (s *Server) writeNotFound(w http.ResponseWriter, lang string) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   1,
		Message: s.i18n.For(lang).T("error.404.header"),
	})
}

// setEmailCookie stores the encrypted customer email so the success and fail
// landing pages can identify the session without query parameters.
func (s *Server) setEmailCookie(w http.ResponseWriter, email string) {
	enc, err := s.enc.Encrypt(email)
	if err != nil {
		s.log.Error().Err(err).Msg("email cookie encryption failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     emailCookieName,
		Value:    enc,
		Path:     "/",
		MaxAge:   72 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// emailCookieValue prefers the explicit query parameter (used by the
// ru-redirect) over the cookie.
func (s *Server) emailCookieValue(r *http.Request) string {
	if v := r.URL.Query().Get(emailCookieName); v != "" {
		return v
	}
	if c, err := r.Cookie(emailCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) decryptEmail(cookie string) string {
	if cookie == "" {
		return ""
	}
	email, err := s.enc.Decrypt(cookie)
	if err != nil {
		return ""
	}
	return email
}
