package auction

import (
	"strings"
	"time"
)

// Bid is a single accepted offer. Bids are never mutated after acceptance.
type Bid struct {
	Amount int64
	Bidder string
	Placed time.Time
}

type BidStatus int

const (
	BidAccepted BidStatus = iota
	BidRepeatBidder
	BidDoesNotRaise
	BidBelowMinimum
	BidAboveMaximum
)

// BidResult reports the outcome of a bid attempt. Rejections are outcomes,
// not errors; the command layer turns them into chat replies. Ref carries the
// amount the status refers to: the standing bid for RepeatBidder and
// DoesNotRaise, the floor for BelowMinimum, the raise cap for AboveMaximum.
type BidResult struct {
	Status BidStatus
	Ref    int64
	First  bool
}

// Settings are the per-auction rules, resolved from config when the auction
// is opened. A running auction never re-reads config.
type Settings struct {
	Duration time.Duration
	Helmet   time.Duration
	MaxRaise int64
	MinBid   int64
	Prize    string
}

// Auction holds one live auction's rules, close time and bid ledger. It is
// not safe for concurrent use on its own; a Slot serializes access between
// the command handler and the announcer.
type Auction struct {
	Settings

	OpenedAt time.Time
	closesAt time.Time
	bids     []Bid

	now func() time.Time
}

func New(s Settings) *Auction {
	return newAuction(s, time.Now)
}

func newAuction(s Settings, now func() time.Time) *Auction {
	opened := now()
	return &Auction{
		Settings: s,
		OpenedAt: opened,
		closesAt: opened.Add(s.Duration),
		now:      now,
	}
}

// Bid validates an offer and, if it passes, appends it to the ledger and runs
// the anti-snipe extension. Checks run in a fixed order: repeat bidder,
// does-not-raise, raise cap, floor. A first bid is raise-capped against the
// floor so nobody can open at minBid+maxRaise+1 and lock everyone out.
func (a *Auction) Bid(bidder string, amount int64) BidResult {
	if last, ok := a.LastBid(); ok {
		if strings.EqualFold(bidder, last.Bidder) {
			return BidResult{Status: BidRepeatBidder, Ref: last.Amount}
		}
		if amount <= last.Amount {
			return BidResult{Status: BidDoesNotRaise, Ref: last.Amount}
		}
		if amount-last.Amount > a.MaxRaise {
			return BidResult{Status: BidAboveMaximum, Ref: a.MaxRaise}
		}
	} else if amount > a.MinBid+a.MaxRaise {
		return BidResult{Status: BidAboveMaximum, Ref: a.MaxRaise}
	}

	if amount < a.MinBid {
		return BidResult{Status: BidBelowMinimum, Ref: a.MinBid}
	}

	first := len(a.bids) == 0
	a.bids = append(a.bids, Bid{Amount: amount, Bidder: bidder, Placed: a.now()})
	a.deflectSniper()
	return BidResult{Status: BidAccepted, First: first}
}

// deflectSniper guarantees at least Helmet of bidding window after every
// accepted bid. The close time is clamped to now+helmet, never compounded,
// so rapid bidding cannot push it further than one helmet past the last bid.
func (a *Auction) deflectSniper() {
	now := a.now()
	if a.closesAt.Before(now.Add(a.Helmet)) {
		a.closesAt = now.Add(a.Helmet)
	}
}

// AddTime shifts the close time forward unconditionally. Used only for
// downtime compensation after a reconnect, never by bidding.
func (a *Auction) AddTime(d time.Duration) {
	a.closesAt = a.closesAt.Add(d)
}

// Remaining reports the time left until close. ok is false once the auction
// has expired and should be finalized.
func (a *Auction) Remaining() (time.Duration, bool) {
	d := a.closesAt.Sub(a.now())
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// LastBid returns the current leading bid, if any.
func (a *Auction) LastBid() (Bid, bool) {
	if len(a.bids) == 0 {
		return Bid{}, false
	}
	return a.bids[len(a.bids)-1], true
}

// Bids returns a copy of the ledger in acceptance order.
func (a *Auction) Bids() []Bid {
	out := make([]Bid, len(a.bids))
	copy(out, a.bids)
	return out
}

// DisplaySeconds converts a remaining duration into the 1-indexed countdown
// figure shown to users: "5 seconds remain" stays true for the whole second
// before the value turns 4.
func DisplaySeconds(d time.Duration) int64 {
	return int64(d/time.Second) + 1
}
