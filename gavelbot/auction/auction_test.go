package auction

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testSettings() Settings {
	return Settings{
		Duration: 30 * time.Second,
		Helmet:   10 * time.Second,
		MaxRaise: 100,
		MinBid:   50,
	}
}

func testAuction() (*Auction, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return newAuction(testSettings(), clk.now), clk
}

func TestBidFirstBid(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		wantStatus BidStatus
		wantRef    int64
	}{
		{name: "AtMinimum", amount: 50, wantStatus: BidAccepted},
		{name: "AboveMinimum", amount: 120, wantStatus: BidAccepted},
		{name: "AtRaiseCap", amount: 150, wantStatus: BidAccepted},
		{name: "BelowMinimum", amount: 49, wantStatus: BidBelowMinimum, wantRef: 50},
		{name: "AboveRaiseCap", amount: 151, wantStatus: BidAboveMaximum, wantRef: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testAuction()
			got := a.Bid("alice", tt.amount)
			if got.Status != tt.wantStatus {
				t.Errorf("Bid() status = %v, want %v", got.Status, tt.wantStatus)
			}
			if got.Ref != tt.wantRef {
				t.Errorf("Bid() ref = %v, want %v", got.Ref, tt.wantRef)
			}
			if tt.wantStatus == BidAccepted && !got.First {
				t.Errorf("Bid() first = false, want true")
			}
		})
	}
}

func TestBidAgainstStandingBid(t *testing.T) {
	tests := []struct {
		name       string
		bidder     string
		amount     int64
		wantStatus BidStatus
		wantRef    int64
	}{
		{name: "RepeatBidder", bidder: "alice", amount: 150, wantStatus: BidRepeatBidder, wantRef: 100},
		{name: "RepeatBidderDifferentCase", bidder: "ALICE", amount: 150, wantStatus: BidRepeatBidder, wantRef: 100},
		{name: "EqualDoesNotRaise", bidder: "bob", amount: 100, wantStatus: BidDoesNotRaise, wantRef: 100},
		{name: "LowerDoesNotRaise", bidder: "bob", amount: 90, wantStatus: BidDoesNotRaise, wantRef: 100},
		{name: "RaiseTooLarge", bidder: "bob", amount: 201, wantStatus: BidAboveMaximum, wantRef: 100},
		{name: "RaiseAtCap", bidder: "bob", amount: 200, wantStatus: BidAccepted},
		{name: "SmallRaise", bidder: "bob", amount: 101, wantStatus: BidAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testAuction()
			if got := a.Bid("alice", 100); got.Status != BidAccepted {
				t.Fatalf("setup bid rejected: %v", got.Status)
			}

			got := a.Bid(tt.bidder, tt.amount)
			if got.Status != tt.wantStatus {
				t.Errorf("Bid() status = %v, want %v", got.Status, tt.wantStatus)
			}
			if got.Ref != tt.wantRef {
				t.Errorf("Bid() ref = %v, want %v", got.Ref, tt.wantRef)
			}
			if got.First {
				t.Errorf("Bid() first = true, want false")
			}
		})
	}
}

func TestBidRejectionLeavesStateUntouched(t *testing.T) {
	a, clk := testAuction()
	a.Bid("alice", 100)

	closesBefore := a.closesAt
	ledgerBefore := len(a.bids)

	clk.advance(25 * time.Second) // inside the helmet window

	for _, attempt := range []struct {
		bidder string
		amount int64
	}{
		{"alice", 150}, // repeat bidder
		{"bob", 100},   // does not raise
		{"bob", 500},   // raise too large
	} {
		if got := a.Bid(attempt.bidder, attempt.amount); got.Status == BidAccepted {
			t.Fatalf("Bid(%q, %d) accepted, want rejection", attempt.bidder, attempt.amount)
		}
	}

	if a.closesAt != closesBefore {
		t.Errorf("rejected bids moved close time from %v to %v", closesBefore, a.closesAt)
	}
	if len(a.bids) != ledgerBefore {
		t.Errorf("rejected bids grew ledger from %d to %d entries", ledgerBefore, len(a.bids))
	}
}

func TestLedgerStrictlyIncreasing(t *testing.T) {
	a, _ := testAuction()

	bidders := []string{"alice", "bob", "carol", "dave"}
	amounts := []int64{60, 55, 120, 90, 130, 131, 500}

	i := 0
	for _, amount := range amounts {
		if got := a.Bid(bidders[i%len(bidders)], amount); got.Status == BidAccepted {
			i++
		}
	}

	bids := a.Bids()
	for j := 1; j < len(bids); j++ {
		if bids[j].Amount <= bids[j-1].Amount {
			t.Fatalf("ledger not strictly increasing at %d: %d after %d",
				j, bids[j].Amount, bids[j-1].Amount)
		}
		if bids[j].Bidder == bids[j-1].Bidder {
			t.Fatalf("ledger holds consecutive bids by %q", bids[j].Bidder)
		}
	}
}

func TestHelmetClampsCloseTime(t *testing.T) {
	a, clk := testAuction()

	// Plenty of time left: the close time must not move.
	clk.advance(5 * time.Second)
	before := a.closesAt
	a.Bid("alice", 60)
	if a.closesAt != before {
		t.Errorf("bid with 25s left moved close time by %v", a.closesAt.Sub(before))
	}

	// Inside the helmet window: close time is pushed to now+helmet.
	clk.advance(22 * time.Second) // 3s remain
	a.Bid("bob", 70)
	remaining, ok := a.Remaining()
	if !ok {
		t.Fatal("auction expired after helmet extension")
	}
	if remaining != a.Helmet {
		t.Errorf("remaining after snipe = %v, want %v", remaining, a.Helmet)
	}

	// A second immediate bid clamps to the same instant, never compounds.
	a.Bid("carol", 80)
	remaining, _ = a.Remaining()
	if remaining != a.Helmet {
		t.Errorf("remaining after back-to-back snipes = %v, want %v", remaining, a.Helmet)
	}
}

func TestHelmetGuaranteeHolds(t *testing.T) {
	a, clk := testAuction()

	// Whenever a bid is accepted, at least Helmet must remain afterwards.
	amount := int64(50)
	for i := 0; i < 40; i++ {
		bidder := "alice"
		if i%2 == 1 {
			bidder = "bob"
		}
		if got := a.Bid(bidder, amount); got.Status == BidAccepted {
			remaining, ok := a.Remaining()
			if !ok || remaining < a.Helmet {
				t.Fatalf("bid %d accepted with %v remaining, want >= %v", i, remaining, a.Helmet)
			}
		}
		amount += 10
		clk.advance(2 * time.Second)
	}
}

func TestRemainingExpiry(t *testing.T) {
	a, clk := testAuction()

	remaining, ok := a.Remaining()
	if !ok || remaining != 30*time.Second {
		t.Errorf("Remaining() = %v, %v, want 30s, true", remaining, ok)
	}

	clk.advance(30 * time.Second)
	if _, ok := a.Remaining(); ok {
		t.Error("Remaining() ok = true at exactly the close time, want false")
	}

	a.AddTime(10 * time.Second)
	remaining, ok = a.Remaining()
	if !ok || remaining != 10*time.Second {
		t.Errorf("Remaining() after AddTime = %v, %v, want 10s, true", remaining, ok)
	}
}

func TestFinish(t *testing.T) {
	a, clk := testAuction()
	a.Bid("alice", 60)
	clk.advance(time.Second)
	a.Bid("bob", 120)

	fin := a.Finish()
	if fin.Winner == nil {
		t.Fatal("Finish() winner = nil, want bob")
	}
	if fin.Winner.Bidder != "bob" || fin.Winner.Amount != 120 {
		t.Errorf("Finish() winner = %+v, want bob at 120", fin.Winner)
	}
	if len(fin.Bids) != 2 {
		t.Errorf("Finish() ledger has %d bids, want 2", len(fin.Bids))
	}
	if fin.Opened != a.OpenedAt {
		t.Errorf("Finish() opened = %v, want %v", fin.Opened, a.OpenedAt)
	}
}

func TestFinishNoBids(t *testing.T) {
	a, _ := testAuction()
	fin := a.Finish()
	if fin.Winner != nil {
		t.Errorf("Finish() winner = %+v, want nil", fin.Winner)
	}
	if len(fin.Bids) != 0 {
		t.Errorf("Finish() ledger has %d bids, want 0", len(fin.Bids))
	}
}

func TestDisplaySeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int64
	}{
		{time.Nanosecond, 1},
		{999 * time.Millisecond, 1},
		{time.Second, 2},
		{4900 * time.Millisecond, 5},
		{10 * time.Second, 11},
		{time.Hour, 3601},
	}
	for _, tt := range tests {
		if got := DisplaySeconds(tt.d); got != tt.want {
			t.Errorf("DisplaySeconds(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
