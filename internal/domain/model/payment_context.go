package model

// PaymentContext is the transient, per-request payment input. Never persisted.
type PaymentContext struct {
	Email     string
	Coupon    string
	Plan      int // duration in days; 0 = trial
	Lang      string
	IP        string
	Currency  string // payment-method identifier; "free" for the trial path
	Permanent bool
}

// IsTrial reports whether the context describes the zero-cost trial path.
func (c *PaymentContext) IsTrial() bool { return c.Currency == "free" }
