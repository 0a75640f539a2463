package adapter

import "context"

// RateSource supplies the USD to local-currency conversion rate used by the
// webhook amount-tolerance check. Implementations cache aggressively and fall
// back to a hardcoded rate when the remote rate API is unreachable.
type RateSource interface {
	USDToRUB(ctx context.Context) float64
}
