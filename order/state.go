package order

import "time"

// Status represents the resting-order lifecycle.
type Status string

const (
	// StatusPlaced 挂单中，可能成交或过期。
	StatusPlaced Status = "PLACED"
	// StatusFilled 已成交（终态，产生一笔 Trade）。
	StatusFilled Status = "FILLED"
	// StatusExpired 已过期（终态，不产生 Trade）。
	StatusExpired Status = "EXPIRED"
)

// IsFinal 判断是否是终态。
func (s Status) IsFinal() bool {
	return s == StatusFilled || s == StatusExpired
}

// Resting is one of the engine's own simulated limit orders. It is owned
// exclusively by the Book from placement until it reaches a terminal state.
type Resting struct {
	ID        string
	Side      string // BUY / SELL
	Price     float64
	Qty       float64
	CreatedAt time.Time
	Status    Status
}
