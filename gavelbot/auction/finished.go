package auction

import "time"

// FinishedAuction is the immutable snapshot handed to persistence once an
// auction closes. Winner is nil when the auction ended with no bids.
type FinishedAuction struct {
	Prize    string
	MinBid   int64
	MaxRaise int64
	Duration time.Duration
	Helmet   time.Duration
	Opened   time.Time
	Closed   time.Time
	Winner   *Bid
	Bids     []Bid
}

// Finish converts the auction into its finished snapshot. The caller is
// expected to clear the slot in the same critical section so the conversion
// happens exactly once.
func (a *Auction) Finish() *FinishedAuction {
	fin := &FinishedAuction{
		Prize:    a.Prize,
		MinBid:   a.MinBid,
		MaxRaise: a.MaxRaise,
		Duration: a.Settings.Duration,
		Helmet:   a.Helmet,
		Opened:   a.OpenedAt,
		Closed:   a.closesAt,
		Bids:     a.Bids(),
	}
	if last, ok := a.LastBid(); ok {
		fin.Winner = &last
	}
	return fin
}
