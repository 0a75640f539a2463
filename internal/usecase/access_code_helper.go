package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

const (
	codePrefix      = "KEY"
	codeRandomLen   = 10
	codeGenAttempts = 5
)

// randomToken draws n characters from chars using crypto/rand. Bytes past
// the largest multiple of len(chars) are rejected and redrawn, so every
// character is picked with equal probability.
func randomToken(chars string, n int) (string, error) {
	limit := byte(256 - 256%len(chars))
	out := make([]byte, 0, n)
	buffer := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(rand.Reader, buffer[:n-len(out)]); err != nil {
			return "", err
		}
		for _, b := range buffer[:n-len(out)] {
			if limit != 0 && b >= limit {
				continue
			}
			out = append(out, chars[int(b)%len(chars)])
		}
	}
	return string(out), nil
}

// generateAccessCode allocates an unused access code of the form
// KEY + 10 upper-case alphanumerics. Collisions are retried a bounded
// number of times rather than recursing without limit.
func generateAccessCode(ctx context.Context, users repository.UserRepository, tx repository.Tx) (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		suffix, err := randomToken(chars, codeRandomLen)
		if err != nil {
			return "", err
		}
		code := codePrefix + suffix

		_, err = users.FindByCode(ctx, tx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// Taken, draw again.
	}
	return "", domain.ErrCodeSpaceExhausted
}

// generatePassword creates a random account password.
func generatePassword() (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	return randomToken(chars, 12)
}
