package model

import (
	"strconv"
	"strings"
	"time"
)

// Coupon is a discount code with optional plan restriction, usage limit and expiry.
type Coupon struct {
	Code        string
	Percent     int // discount percent off the base price
	Prolong     int // extra subscription time bonus, percent of purchased days
	TimesUsed   int
	MaxUseLimit int // 0 = unlimited
	Manual      bool
	Created     time.Time
	Expiration  time.Time
	Plans       string // comma-separated plan ids the coupon is restricted to; empty = any
}

// AllowedPlans parses the comma-separated plan restriction list.
// Returns nil when the coupon applies to any plan.
func (c *Coupon) AllowedPlans() []int {
	if c.Plans == "" {
		return nil
	}
	parts := strings.Split(c.Plans, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// CouponCheck is the evaluation result for a valid coupon.
type CouponCheck struct {
	Percent int `json:"percent"`
	Prolong int `json:"prolong"`
}
