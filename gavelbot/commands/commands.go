package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sahilm/fuzzy"

	"github.com/ellavondegurechaff/gavel/gavelbot"
)

// Sender is who issued the command, as seen by the command layer. Name is
// the lowercased account name used for identity checks; Display is what we
// address them by in replies.
type Sender struct {
	Name    string
	Display string
}

type handler func(ctx context.Context, channelID snowflake.ID, sender Sender, args []string) string

// Router maps the first word of a prefix-stripped chat line to a handler and
// returns the reply text ("" for silence). It holds no auction state of its
// own; everything lives behind the manager's slots.
type Router struct {
	bot      *gavelbot.Bot
	handlers map[string]handler
	names    []string
}

func NewRouter(b *gavelbot.Bot) *Router {
	r := &Router{
		bot:      b,
		handlers: make(map[string]handler),
	}
	r.register("auction", r.handleAuction)
	r.register("bid", r.handleBid)
	return r
}

func (r *Router) register(name string, h handler) {
	r.handlers[name] = h
	r.names = append(r.names, name)
}

// Dispatch runs the command named by words[0]. Unknown commands get a fuzzy
// "did you mean" nudge when something in the table is close enough.
func (r *Router) Dispatch(ctx context.Context, channelID snowflake.ID, sender Sender, words []string) string {
	if len(words) == 0 {
		return ""
	}

	name := strings.ToLower(words[0])
	if h, ok := r.handlers[name]; ok {
		return h(ctx, channelID, sender, words[1:])
	}

	if matches := fuzzy.Find(name, r.names); len(matches) > 0 {
		return fmt.Sprintf("Unknown command %q. Did you mean %q?", name, matches[0].Str)
	}
	return ""
}
