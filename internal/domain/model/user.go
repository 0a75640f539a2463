package model

import "time"

// User is a VPN service account keyed by email (unique, case-insensitive).
type User struct {
	ID         string // UUID
	Email      string
	Code       string // permanent access code, "KEY"+10 upper alnum; set on first payment
	Coupon     string // personal reusable discount coupon code; empty until first payment
	Password   string
	Expires    int64 // unix seconds; only extends forward
	Plan       int   // last purchased plan length in days
	Trial      bool  // cleared once any non-trial transaction completes
	CountryISO string
	Lang       string
	RegSource  string
	PartnerID  *int64
	Created    time.Time
}

// HasCode reports whether a permanent access code was already assigned.
func (u *User) HasCode() bool { return u.Code != "" }

// HasCoupon reports whether a personal coupon was already assigned.
func (u *User) HasCoupon() bool { return u.Coupon != "" }
