package usecase

import (
	"context"
	"fmt"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
	"vpn-subscription-backend/internal/infra/i18n"
)

// Compile-time check
var _ PageUseCase = (*pageUC)(nil)

// PageUseCase compiles the localized success and fail landing-page payloads.
// The email argument is already decrypted from the session cookie by the
// HTTP layer; an empty email means the cookie was absent or unreadable.
type PageUseCase interface {
	Success(ctx context.Context, email, emailCookie string) (*model.PageMessage, error)
	Fail(ctx context.Context, email string) *model.PageMessage
}

type pageUC struct {
	users           repository.UserRepository
	i18n            *i18n.Bundle
	frontendBaseURL string
}

func NewPageUseCase(users repository.UserRepository, bundle *i18n.Bundle, frontendBaseURL string) *pageUC {
	return &pageUC{users: users, i18n: bundle, frontendBaseURL: frontendBaseURL}
}

func (u *pageUC) Success(ctx context.Context, email, emailCookie string) (*model.PageMessage, error) {
	if email == "" {
		return &model.PageMessage{
			Message: "Cookies are switched off or the session has been terminated",
		}, nil
	}

	user, err := u.users.FindByEmail(ctx, nil, email)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	msg := &model.PageMessage{Email: user.Email, Code: user.Code}

	// Russian-geo users browsing a non-Russian page get bounced to the
	// Russian variant.
	lang := user.Lang
	if user.CountryISO == "ru" && user.Lang != "ru" {
		lang = "ru"
		msg.URLRedirect = fmt.Sprintf(
			"%s/%s/vpn/payment/success?email_cookie=%s",
			u.frontendBaseURL, lang, emailCookie,
		)
		msg.CountryISO = user.CountryISO
	}

	tr := u.i18n.For(lang)
	if user.Trial {
		msg.Message = tr.T("vpn.payment.done.thanks-trial") + "\n\n" +
			tr.T("vpn.payment.done.activated-trial", user.Email)
	} else {
		msg.Message = tr.T("vpn.payment.done.thanks-paid") + "\n\n" +
			tr.T("vpn.payment.done.activated-paid") + "\n\n" +
			tr.T("vpn.payment.done.activated-paid-info", user.Email)
	}
	return msg, nil
}

func (u *pageUC) Fail(ctx context.Context, email string) *model.PageMessage {
	if email == "" {
		return &model.PageMessage{
			Message: "You need to enable cookies in your browser to use our services",
		}
	}

	lang := "en"
	if user, err := u.users.FindByEmail(ctx, nil, email); err == nil {
		lang = user.Lang
	}

	tr := u.i18n.For(lang)
	return &model.PageMessage{
		Message: tr.T("vpn.payment.fail.header") + "\n\n" + tr.T("vpn.payment.fail.message"),
	}
}
