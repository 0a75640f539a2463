package model

// Tariff is a purchasable subscription plan. Days doubles as the plan id and
// price lookup key; Price is stored as text in the backing store.
type Tariff struct {
	Days  int    `json:"days"`
	Name  string `json:"name"`
	Price string `json:"price"` // decimal string, e.g. "9.9"
}
