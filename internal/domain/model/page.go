package model

// CreateResult is the JSON body returned to the storefront after a paid
// order is created and the gateway invoice exists.
type CreateResult struct {
	Error      int    `json:"error"`
	UseForm    int    `json:"useForm"`
	PaymentURL string `json:"payment_url"`
	ID         string `json:"id"`
	Data       string `json:"data"`
}

// TrialResult acknowledges a trial signup.
type TrialResult struct {
	Status string `json:"status"`
}

// PageMessage is the localized payload rendered by the success and fail
// landing pages. URLRedirect is set when a Russian-geo user should be
// bounced to the Russian page variant.
type PageMessage struct {
	Message     string `json:"message"`
	Email       string `json:"email,omitempty"`
	Code        string `json:"code,omitempty"`
	CountryISO  string `json:"country_iso,omitempty"`
	URLRedirect string `json:"url_redirect,omitempty"`
}
