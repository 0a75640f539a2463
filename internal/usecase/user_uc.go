package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/adapter"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// placeholderExpiry keeps freshly provisioned accounts far in the future
// until the first confirmed payment assigns a real entitlement window.
const placeholderExpiryYears = 5

type UserUseCase interface {
	// EnsureByEmail returns the account for email, provisioning a new trial
	// account with a fresh access code and password when none exists.
	EnsureByEmail(ctx context.Context, email, lang, ip, regSource string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	geo   adapter.CountryResolver
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, geo adapter.CountryResolver, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, geo: geo, log: logger}
}

func (u *userUC) EnsureByEmail(ctx context.Context, email, lang, ip, regSource string) (*model.User, error) {
	var user *model.User

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByEmail(ctx, tx, email)
		if err == nil {
			user = existing
			return nil
		}
		if err != domain.ErrNotFound {
			return err
		}

		code, err := generateAccessCode(ctx, u.users, tx)
		if err != nil {
			return err
		}
		password, err := generatePassword()
		if err != nil {
			return err
		}

		nu := &model.User{
			ID:         uuid.NewString(),
			Email:      email,
			Code:       code,
			Password:   password,
			Expires:    time.Now().AddDate(placeholderExpiryYears, 0, 0).Unix(),
			Plan:       0,
			Trial:      true,
			CountryISO: u.geo.CountryISO(ctx, ip),
			Lang:       lang,
			RegSource:  regSource,
			Created:    time.Now(),
		}
		if err := u.users.Create(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.Count(ctx, nil)
}
