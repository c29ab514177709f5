package auction

import (
	"fmt"

	"github.com/ellavondegurechaff/gavel/gavelbot/utils"
)

// announceBoundaries is the set of displayed-seconds values at which the
// announcer emits a full status line. Below 10s the countdown rule applies
// instead; above the largest boundary users have to ask for status.
var announceBoundaries = buildBoundaries()

func buildBoundaries() map[int64]struct{} {
	b := map[int64]struct{}{
		10: {}, 15: {}, 30: {},
		60: {}, 120: {}, 300: {}, 600: {}, 900: {}, 1800: {},
	}
	for h := int64(1); h <= 24; h++ {
		b[h*3600] = struct{}{}
	}
	for _, h := range []int64{36, 48, 72} {
		b[h*3600] = struct{}{}
	}
	return b
}

// AnnounceAt reports whether a tick with the given displayed seconds
// remaining warrants an automatic full status line.
func AnnounceAt(t int64) bool {
	_, ok := announceBoundaries[t]
	return ok
}

// TickLine maps a tick to the line to announce, or "" for a silent tick.
// t is the 1-indexed countdown figure (see DisplaySeconds).
func TickLine(a *Auction, t int64) string {
	if t <= 5 {
		return fmt.Sprintf("%d...", t)
	}
	if !AnnounceAt(t) {
		return ""
	}
	return StatusLine(a)
}

// StatusLine is the full status announcement, also used for the on-demand
// status command and the post-reconnect resume message.
func StatusLine(a *Auction) string {
	remaining, ok := a.Remaining()
	if !ok {
		remaining = 0
	}
	left := utils.FormatDuration(remaining)

	if last, hasBid := a.LastBid(); hasBid {
		return fmt.Sprintf(
			"Auction: %s remaining. The high bid is %s, held by @%s.",
			left, utils.FormatMoney(last.Amount), last.Bidder,
		)
	}
	if a.Prize != "" {
		return fmt.Sprintf(
			"Auction for %s: %s remaining. No bids yet; bidding starts at %s.",
			a.Prize, left, utils.FormatMoney(a.MinBid),
		)
	}
	return fmt.Sprintf(
		"Auction: %s remaining. No bids yet; bidding starts at %s.",
		left, utils.FormatMoney(a.MinBid),
	)
}

// ClosingLine is the one-shot announcement emitted when an auction expires.
func ClosingLine(fin *FinishedAuction) string {
	if fin.Winner != nil {
		if fin.Prize != "" {
			return fmt.Sprintf(
				"The auction for %s is over! Sold to @%s for %s.",
				fin.Prize, fin.Winner.Bidder, utils.FormatMoney(fin.Winner.Amount),
			)
		}
		return fmt.Sprintf(
			"The auction is over! Won by @%s at %s.",
			fin.Winner.Bidder, utils.FormatMoney(fin.Winner.Amount),
		)
	}
	return "The auction has ended with no bids."
}

// ResumeLine summarizes a compensated auction after a reconnect.
func ResumeLine(a *Auction) string {
	return "The auction is back after a connection drop. " + StatusLine(a)
}
