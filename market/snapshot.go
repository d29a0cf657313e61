package market

import "time"

// Level is one price level of the synthetic book.
type Level struct {
	Price float64
	Qty   float64
}

// Snapshot represents one tick of synthetic market state. It is immutable
// after creation; the engine keeps only the latest one plus ring histories.
type Snapshot struct {
	Symbol    string
	LastPrice float64
	BidPrice  float64
	AskPrice  float64
	Volume    int64
	Timestamp time.Time
	Bids      []Level // descending by price
	Asks      []Level // ascending by price
}

// Spread 返回当前盘口宽度。
func (s Snapshot) Spread() float64 {
	return s.AskPrice - s.BidPrice
}

// Mid 返回中间价；若任一侧缺失返回 0。
func (s Snapshot) Mid() float64 {
	if s.BidPrice <= 0 || s.AskPrice <= 0 {
		return 0
	}
	return (s.BidPrice + s.AskPrice) / 2
}
