package inventory

import "time"

// Trade 一笔已成交记录，写入后不可变。
type Trade struct {
	Timestamp time.Time
	Side      string // BUY / SELL
	Price     float64
	Qty       float64
	OrderID   string
	PnL       float64 // 本笔贡献的已实现盈亏
}
