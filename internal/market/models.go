package market

import "time"

type Quote struct {
	Symbol   string    `json:"symbol"`
	Time     time.Time `json:"time"`
	BidPrice float64   `json:"bid_price"`
	AskPrice float64   `json:"ask_price"`
}

func (q Quote) MidPrice() float64 {
	return (q.BidPrice + q.AskPrice) / 2
}

func (q Quote) Spread() float64 {
	return q.AskPrice - q.BidPrice
}
