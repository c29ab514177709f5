package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
	"github.com/ellavondegurechaff/gavel/gavelbot/utils"
)

// slotTimeout bounds how long a command waits on the auction lock. The
// announcer's critical sections are microseconds; if this expires something
// is wrong and the user can simply retry.
const slotTimeout = time.Second

const busyReply = "The auction is busy right now, try again."

func (r *Router) handleAuction(ctx context.Context, channelID snowflake.ID, sender Sender, args []string) string {
	slot, ok := r.bot.AuctionManager.Slot(channelID)
	if !ok {
		return ""
	}

	sub := "status"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}

	switch sub {
	case "status":
		return r.auctionStatus(ctx, slot)
	case "start":
		if !r.bot.Cfg.IsAdmin(sender.Name) {
			return ""
		}
		return r.auctionStart(ctx, channelID, slot, args)
	case "stop":
		if !r.bot.Cfg.IsAdmin(sender.Name) {
			return ""
		}
		return r.auctionStop(ctx, slot)
	case "prize":
		return r.auctionPrize(ctx, slot, sender, args)
	case "recent":
		return r.auctionRecent(ctx, channelID)
	default:
		return fmt.Sprintf("Unknown subcommand %q. Try status, start, stop, prize or recent.", sub)
	}
}

func (r *Router) auctionStatus(ctx context.Context, slot *auction.Slot) string {
	var reply string

	lockCtx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	err := slot.Update(lockCtx, func(cur *auction.Auction) *auction.Auction {
		if cur == nil {
			reply = "No auction is currently running."
			return nil
		}
		reply = auction.StatusLine(cur)
		return cur
	})
	if err != nil {
		return busyReply
	}
	return reply
}

func (r *Router) auctionStart(ctx context.Context, channelID snowflake.ID, slot *auction.Slot, args []string) string {
	settings, err := parseStartArgs(r.bot.Cfg.SettingsFor(channelID), args)
	if err != nil {
		return err.Error()
	}

	var reply string

	lockCtx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	lockErr := slot.Update(lockCtx, func(cur *auction.Auction) *auction.Auction {
		if cur != nil {
			reply = "An auction is already running."
			return cur
		}
		opened := auction.New(settings)
		reply = openingLine(opened, r.bot.Cfg.Bot.Prefix)
		return opened
	})
	if lockErr != nil {
		return busyReply
	}
	return reply
}

func (r *Router) auctionStop(ctx context.Context, slot *auction.Slot) string {
	var reply string

	lockCtx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	err := slot.Update(lockCtx, func(cur *auction.Auction) *auction.Auction {
		if cur == nil {
			reply = "No auction is currently running."
			return nil
		}
		// A stopped auction is discarded outright; only expiry produces a
		// finished record.
		reply = "The auction has been stopped. No winner will be drawn."
		return nil
	})
	if err != nil {
		return busyReply
	}
	return reply
}

func (r *Router) auctionPrize(ctx context.Context, slot *auction.Slot, sender Sender, args []string) string {
	setting := len(args) > 0
	if setting && !r.bot.Cfg.IsAdmin(sender.Name) {
		return ""
	}
	prize := utils.Unquote(strings.Join(args, " "))

	var reply string

	lockCtx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	err := slot.Update(lockCtx, func(cur *auction.Auction) *auction.Auction {
		switch {
		case cur == nil:
			reply = "No auction is currently running."
		case !setting && cur.Prize == "":
			reply = "No prize has been set for this auction."
		case !setting:
			reply = fmt.Sprintf("The current prize is: %s", cur.Prize)
		default:
			cur.Prize = prize
			reply = fmt.Sprintf("The prize is now: %s", prize)
		}
		return cur
	})
	if err != nil {
		return busyReply
	}
	return reply
}

func (r *Router) auctionRecent(ctx context.Context, channelID snowflake.ID) string {
	repo := r.bot.AuctionRepository
	if repo == nil {
		return "No auction records are kept here."
	}

	records, err := repo.GetRecent(ctx, channelID, 5)
	if err != nil {
		slog.Error("Failed to fetch recent auctions",
			slog.String("type", "db"),
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
		return "Could not look up the auction records, try again later."
	}
	if len(records) == 0 {
		return "No auctions on record for this channel."
	}

	var b strings.Builder
	b.WriteString("Recent auctions:")
	for _, rec := range records {
		day := rec.ClosedAt.Format("Jan 2")
		if rec.Winner != "" {
			fmt.Fprintf(&b, " [%s: @%s at %s]", day, rec.Winner, utils.FormatMoney(rec.WinningBid))
		} else {
			fmt.Fprintf(&b, " [%s: no bids]", day)
		}
	}
	return b.String()
}

func (r *Router) handleBid(ctx context.Context, channelID snowflake.ID, sender Sender, args []string) string {
	slot, ok := r.bot.AuctionManager.Slot(channelID)
	if !ok {
		return ""
	}
	if r.bot.Cfg.IsBlacklisted(sender.Name) {
		return ""
	}
	if len(args) == 0 {
		return fmt.Sprintf("@%s Usage: %sbid <amount>", sender.Display, r.bot.Cfg.Bot.Prefix)
	}

	amount, err := parseAmount(args[0])
	if err != nil {
		return fmt.Sprintf("@%s That is not a bid I can count.", sender.Display)
	}

	var result auction.BidResult
	active := false

	lockCtx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	lockErr := slot.Update(lockCtx, func(cur *auction.Auction) *auction.Auction {
		if cur == nil {
			return nil
		}
		active = true
		result = cur.Bid(sender.Name, amount)
		return cur
	})
	if lockErr != nil {
		return busyReply
	}
	if !active {
		return "No auction is currently running."
	}
	return bidReply(sender, amount, result)
}

func bidReply(sender Sender, amount int64, result auction.BidResult) string {
	switch result.Status {
	case auction.BidRepeatBidder:
		return fmt.Sprintf("@%s You already hold the high bid of %s.",
			sender.Display, utils.FormatMoney(result.Ref))
	case auction.BidDoesNotRaise:
		return fmt.Sprintf("@%s Your bid must raise the high bid of %s.",
			sender.Display, utils.FormatMoney(result.Ref))
	case auction.BidAboveMaximum:
		return fmt.Sprintf("@%s You cannot raise by more than %s.",
			sender.Display, utils.FormatMoney(result.Ref))
	case auction.BidBelowMinimum:
		return fmt.Sprintf("@%s The minimum bid is %s.",
			sender.Display, utils.FormatMoney(result.Ref))
	default:
		if result.First {
			return fmt.Sprintf("@%s opens the bidding at %s!",
				sender.Display, utils.FormatMoney(amount))
		}
		return fmt.Sprintf("@%s raises to %s!",
			sender.Display, utils.FormatMoney(amount))
	}
}

func openingLine(a *auction.Auction, prefix string) string {
	line := fmt.Sprintf(
		"An auction has started! %s on the clock, minimum bid %s, maximum raise %s. Bid with '%sbid <amount>'.",
		utils.FormatDuration(a.Settings.Duration),
		utils.FormatMoney(a.MinBid),
		utils.FormatMoney(a.MaxRaise),
		prefix,
	)
	if a.Prize != "" {
		line = fmt.Sprintf("An auction for %s has started! %s on the clock, minimum bid %s, maximum raise %s. Bid with '%sbid <amount>'.",
			a.Prize,
			utils.FormatDuration(a.Settings.Duration),
			utils.FormatMoney(a.MinBid),
			utils.FormatMoney(a.MaxRaise),
			prefix,
		)
	}
	return line
}

// parseStartArgs layers `auction start` flags over the channel's resolved
// defaults: -t duration, -h helmet (both seconds), -r max raise, -m min bid,
// --prize text.
func parseStartArgs(defaults auction.Settings, args []string) (auction.Settings, error) {
	s := defaults

	for i := 0; i < len(args); i++ {
		flag := args[i]

		value := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("Missing value for %s.", flag)
			}
			return args[i], nil
		}

		switch flag {
		case "-t":
			v, err := value()
			if err != nil {
				return s, err
			}
			secs, err := parsePositive(v)
			if err != nil {
				return s, fmt.Errorf("Invalid duration %q.", v)
			}
			s.Duration = time.Duration(secs) * time.Second
		case "-h":
			v, err := value()
			if err != nil {
				return s, err
			}
			secs, err := parsePositive(v)
			if err != nil {
				return s, fmt.Errorf("Invalid helmet %q.", v)
			}
			s.Helmet = time.Duration(secs) * time.Second
		case "-r":
			v, err := value()
			if err != nil {
				return s, err
			}
			raise, err := parsePositive(v)
			if err != nil {
				return s, fmt.Errorf("Invalid maximum raise %q.", v)
			}
			s.MaxRaise = raise
		case "-m":
			v, err := value()
			if err != nil {
				return s, err
			}
			minBid, err := parsePositive(v)
			if err != nil {
				return s, fmt.Errorf("Invalid minimum bid %q.", v)
			}
			s.MinBid = minBid
		case "--prize":
			v, err := value()
			if err != nil {
				return s, err
			}
			s.Prize = utils.Unquote(v)
		default:
			return s, fmt.Errorf("Unknown option %q. Usage: auction start [-t seconds] [-h seconds] [-r maxRaise] [-m minBid] [--prize text]", flag)
		}
	}
	return s, nil
}

func parsePositive(text string) (int64, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}

// parseAmount reads a bid amount, tolerating a leading currency sign and
// digit grouping ("$1,500").
func parseAmount(text string) (int64, error) {
	text = strings.TrimPrefix(text, "$")
	text = strings.ReplaceAll(text, ",", "")
	return parsePositive(text)
}
