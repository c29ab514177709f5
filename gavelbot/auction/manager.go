package auction

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"
)

// Manager owns one Slot and one Announcer per configured channel and the
// connection watcher that compensates auction clocks for downtime. The slot
// map is built once at startup and never mutated, so lookups need no lock.
type Manager struct {
	sender Sender
	conn   Connection
	saver  Saver

	slots      map[snowflake.ID]*Slot
	announcers []*Announcer

	// watchInterval overrides the 1s connection poll in tests.
	watchInterval time.Duration
}

func NewManager(channels []snowflake.ID, sender Sender, conn Connection, saver Saver) *Manager {
	m := &Manager{
		sender: sender,
		conn:   conn,
		saver:  saver,
		slots:  make(map[snowflake.ID]*Slot, len(channels)),
	}
	for _, channelID := range channels {
		slot := NewSlot()
		m.slots[channelID] = slot
		m.announcers = append(m.announcers, &Announcer{
			ChannelID: channelID,
			Slot:      slot,
			Sender:    sender,
			Conn:      conn,
			Saver:     saver,
		})
	}
	return m
}

// Slot returns the shared auction slot for a channel, or false when the
// channel is not one the bot operates in.
func (m *Manager) Slot(channelID snowflake.ID) (*Slot, bool) {
	slot, ok := m.slots[channelID]
	return slot, ok
}

// Run starts every channel's announcer plus the connection watcher and
// blocks until ctx is cancelled or an announcer dies on a send failure.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, an := range m.announcers {
		an := an
		g.Go(func() error {
			return an.Run(ctx)
		})
	}
	g.Go(func() error {
		return m.watchConnection(ctx)
	})

	return g.Wait()
}

// watchConnection polls the transport's liveness once a second. While the
// connection is down it holds every announcer suspended, and on the
// inactive-to-active transition it extends every live auction's close time
// by the measured downtime before releasing them. The release ordering is
// the point: an announcer allowed to tick before AddTime runs would see an
// auction that expired mid-outage and finalize it instead. An outage shorter
// than one poll goes unobserved and costs the clocks at most that interval.
func (m *Manager) watchConnection(ctx context.Context) error {
	interval := m.watchInterval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	active := m.conn.Active()
	var downSince time.Time
	if !active {
		// Starting disconnected: hold the announcers until the first
		// connection is up.
		downSince = time.Now()
		m.suspend()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := m.conn.Active()
		switch {
		case active && !now:
			downSince = time.Now()
			m.suspend()
			slog.Warn("Connection lost, auction clocks paused")
		case !active && now:
			if !downSince.IsZero() {
				downtime := time.Since(downSince)
				slog.Info("Connection restored",
					slog.Duration("downtime", downtime))
				m.compensate(ctx, downtime)
				downSince = time.Time{}
			}
			m.resume()
		}
		active = now
	}
}

func (m *Manager) suspend() {
	for _, an := range m.announcers {
		an.suspended.Store(true)
	}
}

func (m *Manager) resume() {
	for _, an := range m.announcers {
		an.suspended.Store(false)
	}
}

// compensate applies the downtime to each channel's live auction and emits
// the one-time resume summary. The resume text is computed under the slot
// lock and sent after release, like every other announcement.
func (m *Manager) compensate(ctx context.Context, downtime time.Duration) {
	for channelID, slot := range m.slots {
		var line string

		lockCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := slot.Update(lockCtx, func(cur *Auction) *Auction {
			if cur == nil {
				return nil
			}
			cur.AddTime(downtime)
			line = ResumeLine(cur)
			return cur
		})
		cancel()

		if err != nil {
			slog.Warn("Skipped downtime compensation, slot contended",
				slog.String("channel_id", channelID.String()))
			continue
		}
		if line == "" {
			continue
		}

		if err := m.sender.SendLine(ctx, channelID, line); err != nil {
			slog.Error("Failed to send resume announcement",
				slog.String("channel_id", channelID.String()),
				slog.Any("error", err))
		}
	}
}
