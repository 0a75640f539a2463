package adapter

import "context"

// CountryResolver maps a client IP to a lowercase ISO 3166-1 country code.
// GeoIP lookup is an external collaborator; implementations may consult a
// local database, an HTTP service, or return a configured default.
type CountryResolver interface {
	CountryISO(ctx context.Context, ip string) string
}
