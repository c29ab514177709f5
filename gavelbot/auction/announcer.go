package auction

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Sender delivers one line of text to a channel. Implemented over the
// Discord REST client; faked in tests.
type Sender interface {
	SendLine(ctx context.Context, channelID snowflake.ID, text string) error
}

// Connection is the announcer's cheap liveness check on the chat transport.
type Connection interface {
	Active() bool
}

// Saver receives the finished-auction snapshot for durable storage. Failures
// are the saver's problem to log; they never reach the engine.
type Saver interface {
	SaveFinished(ctx context.Context, channelID snowflake.ID, fin *FinishedAuction) error
}

// Announcer drives one channel's auction clock: a fixed 1s tick that reads
// the shared slot under a bounded lock, derives an announcement, and
// finalizes the auction on expiry. It never mutates the slot except for the
// take-on-expiry, so a skipped tick under contention loses at most one
// status line.
type Announcer struct {
	ChannelID snowflake.ID
	Slot      *Slot
	Sender    Sender
	Conn      Connection
	Saver     Saver

	// Interval overrides the 1s tick in tests.
	Interval time.Duration

	// suspended is set by the manager's connection watcher while downtime
	// compensation is pending and cleared only after AddTime has run. The
	// announcer never clears it itself: an auction whose close time passed
	// during an outage must have its clock compensated before any tick can
	// observe it as expired and finalize it.
	suspended atomic.Bool
}

// Run ticks until ctx is cancelled or a send fails. Wake times are computed
// as previous tick + interval so per-tick processing time never accumulates
// into drift. While the connection is down, and after it returns until the
// manager has compensated the auction clock, ticks are skipped entirely.
func (an *Announcer) Run(ctx context.Context) error {
	interval := an.Interval
	if interval <= 0 {
		interval = time.Second
	}

	slog.Info("Announcer started",
		slog.String("channel_id", an.ChannelID.String()),
		slog.Duration("interval", interval))

	next := time.Now().Add(interval)
	for {
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			slog.Info("Announcer stopped",
				slog.String("channel_id", an.ChannelID.String()))
			return nil
		case <-time.After(wait):
		}
		next = next.Add(interval)

		if !an.Conn.Active() || an.suspended.Load() {
			continue
		}

		line, fin, err := an.tick(ctx, interval)
		if err != nil {
			// Lock contention: skip this tick, no backlog, no retry.
			continue
		}

		if fin != nil {
			go an.persist(an.ChannelID, fin)
		}

		if line != "" {
			if err := an.Sender.SendLine(ctx, an.ChannelID, line); err != nil {
				slog.Error("Failed to send announcement",
					slog.String("channel_id", an.ChannelID.String()),
					slog.Any("error", err))
				return err
			}
		}
	}
}

// tick performs one bounded-lock pass over the slot. The announcement text
// is computed while holding the lock and sent afterwards; on expiry the
// auction is taken out of the slot in the same critical section, so a later
// tick sees an empty slot and the closing line fires exactly once.
func (an *Announcer) tick(ctx context.Context, interval time.Duration) (string, *FinishedAuction, error) {
	lockCtx, cancel := context.WithTimeout(ctx, interval/2)
	defer cancel()

	var line string
	var fin *FinishedAuction

	err := an.Slot.Update(lockCtx, func(cur *Auction) *Auction {
		if cur == nil {
			return nil
		}
		remaining, ok := cur.Remaining()
		if !ok {
			fin = cur.Finish()
			line = ClosingLine(fin)
			return nil
		}
		line = TickLine(cur, DisplaySeconds(remaining))
		return cur
	})
	return line, fin, err
}

func (an *Announcer) persist(channelID snowflake.ID, fin *FinishedAuction) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := an.Saver.SaveFinished(ctx, channelID, fin); err != nil {
		slog.Error("Failed to save finished auction",
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
	}
}
