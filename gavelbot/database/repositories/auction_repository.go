package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
	"github.com/ellavondegurechaff/gavel/gavelbot/database/models"
)

const recentCacheSize = 64

type AuctionRepository interface {
	Save(ctx context.Context, channelID snowflake.ID, fin *auction.FinishedAuction) (*models.AuctionRecord, error)
	GetRecent(ctx context.Context, channelID snowflake.ID, limit int) ([]*models.AuctionRecord, error)
}

type auctionRepository struct {
	db *bun.DB

	// recent caches GetRecent results per channel; invalidated on Save.
	recent *lru.Cache
}

func NewAuctionRepository(db *bun.DB) AuctionRepository {
	cache, err := lru.New(recentCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create recent-auctions cache: %v", err))
	}
	return &auctionRepository{db: db, recent: cache}
}

// Save writes the finished auction and its full bid ledger in one
// transaction.
func (r *auctionRepository) Save(ctx context.Context, channelID snowflake.ID, fin *auction.FinishedAuction) (*models.AuctionRecord, error) {
	record := &models.AuctionRecord{
		ChannelID:    int64(channelID),
		Prize:        fin.Prize,
		MinBid:       fin.MinBid,
		RaiseLimit:   fin.MaxRaise,
		DurationSecs: int64(fin.Duration / time.Second),
		HelmetSecs:   int64(fin.Helmet / time.Second),
		OpenedAt:     fin.Opened,
		ClosedAt:     fin.Closed,
		BidCount:     len(fin.Bids),
		CreatedAt:    time.Now(),
	}
	if fin.Winner != nil {
		record.Winner = fin.Winner.Bidder
		record.WinningBid = fin.Winner.Amount
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert auction record: %w", err)
		}

		if len(fin.Bids) == 0 {
			return nil
		}
		bids := make([]*models.BidRecord, 0, len(fin.Bids))
		for _, bid := range fin.Bids {
			bids = append(bids, &models.BidRecord{
				AuctionID: record.ID,
				Bidder:    bid.Bidder,
				Amount:    bid.Amount,
				PlacedAt:  bid.Placed,
			})
		}
		if _, err := tx.NewInsert().Model(&bids).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert bid records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.recent.Remove(channelID)

	slog.Info("Saved finished auction",
		slog.String("type", "db"),
		slog.String("channel_id", channelID.String()),
		slog.Int64("record_id", record.ID),
		slog.Int("bids", record.BidCount),
		slog.Duration("took", time.Since(start)))

	return record, nil
}

func (r *auctionRepository) GetRecent(ctx context.Context, channelID snowflake.ID, limit int) ([]*models.AuctionRecord, error) {
	if cached, ok := r.recent.Get(channelID); ok {
		records := cached.([]*models.AuctionRecord)
		if len(records) >= limit {
			return records[:limit], nil
		}
	}

	var records []*models.AuctionRecord
	err := r.db.NewSelect().
		Model(&records).
		Where("channel_id = ?", int64(channelID)).
		Order("closed_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent auctions: %w", err)
	}

	r.recent.Add(channelID, records)
	return records, nil
}
