package model

// Balances holds the four point counters of a loyalty bank.
type Balances struct {
	Pending    int64 `json:"pending"`
	Earned     int64 `json:"earned"`
	Authorized int64 `json:"authorized"`
	Captured   int64 `json:"captured"`
}

// Available returns earned points not yet reserved or redeemed.
func (b Balances) Available() int64 {
	return b.Earned - b.Authorized - b.Captured
}

// IsZero reports whether every counter is zero.
func (b Balances) IsZero() bool {
	return b == Balances{}
}
