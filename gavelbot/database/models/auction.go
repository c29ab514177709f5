package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuctionRecord is the durable row for one finished auction. Winner is empty
// when the auction closed without bids.
type AuctionRecord struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID        int64  `bun:"id,pk,autoincrement"`
	ChannelID int64  `bun:"channel_id,notnull"`
	Prize     string `bun:"prize"`

	MinBid       int64 `bun:"min_bid,notnull"`
	RaiseLimit   int64 `bun:"raise_limit,notnull"`
	DurationSecs int64 `bun:"duration_secs,notnull"`
	HelmetSecs   int64 `bun:"helmet_secs,notnull"`

	OpenedAt time.Time `bun:"opened_at,notnull"`
	ClosedAt time.Time `bun:"closed_at,notnull"`

	Winner     string `bun:"winner"`
	WinningBid int64  `bun:"winning_bid"`
	BidCount   int    `bun:"bid_count,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type BidRecord struct {
	bun.BaseModel `bun:"table:auction_bids,alias:ab"`

	ID        int64     `bun:"id,pk,autoincrement"`
	AuctionID int64     `bun:"auction_id,notnull"`
	Bidder    string    `bun:"bidder,notnull"`
	Amount    int64     `bun:"amount,notnull"`
	PlacedAt  time.Time `bun:"placed_at,notnull"`
}
