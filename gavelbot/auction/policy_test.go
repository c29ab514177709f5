package auction

import (
	"strings"
	"testing"
	"time"
)

func TestAnnounceAt(t *testing.T) {
	tests := []struct {
		t    int64
		want bool
	}{
		{10, true},
		{15, true},
		{30, true},
		{60, true},
		{120, true},
		{300, true},
		{600, true},
		{900, true},
		{1800, true},
		{3600, true},
		{2 * 3600, true},
		{24 * 3600, true},
		{36 * 3600, true},
		{48 * 3600, true},
		{72 * 3600, true},
		{9, false},
		{11, false},
		{20, false},
		{45, false},
		{61, false},
		{25 * 3600, false},
		{100 * 3600, false},
	}
	for _, tt := range tests {
		if got := AnnounceAt(tt.t); got != tt.want {
			t.Errorf("AnnounceAt(%d) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestTickLine(t *testing.T) {
	a, _ := testAuction()

	tests := []struct {
		name string
		t    int64
		want string
	}{
		{name: "CountdownFive", t: 5, want: "5..."},
		{name: "CountdownOne", t: 1, want: "1..."},
		{name: "SilentSeven", t: 7, want: ""},
		{name: "SilentEleven", t: 11, want: ""},
		{name: "SilentOddBoundary", t: 42, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TickLine(a, tt.t); got != tt.want {
				t.Errorf("TickLine(%d) = %q, want %q", tt.t, got, tt.want)
			}
		})
	}

	if got := TickLine(a, 10); got != StatusLine(a) {
		t.Errorf("TickLine(10) = %q, want full status line", got)
	}
}

func TestStatusLine(t *testing.T) {
	a, _ := testAuction()
	if got := StatusLine(a); !strings.Contains(got, "No bids yet") || !strings.Contains(got, "$50") {
		t.Errorf("StatusLine() without bids = %q", got)
	}

	a.Prize = "a signed poster"
	if got := StatusLine(a); !strings.Contains(got, "a signed poster") {
		t.Errorf("StatusLine() with prize = %q, want prize named", got)
	}

	a.Bid("alice", 120)
	got := StatusLine(a)
	if !strings.Contains(got, "$120") || !strings.Contains(got, "@alice") {
		t.Errorf("StatusLine() with bid = %q, want high bid and holder", got)
	}
}

func TestClosingLine(t *testing.T) {
	a, _ := testAuction()
	if got := ClosingLine(a.Finish()); got != "The auction has ended with no bids." {
		t.Errorf("ClosingLine() without bids = %q", got)
	}

	a, _ = testAuction()
	a.Bid("alice", 100)
	got := ClosingLine(a.Finish())
	if !strings.Contains(got, "@alice") || !strings.Contains(got, "$100") {
		t.Errorf("ClosingLine() = %q, want winner and amount", got)
	}

	a, _ = testAuction()
	a.Prize = "a mug"
	a.Bid("bob", 75)
	got = ClosingLine(a.Finish())
	if !strings.Contains(got, "a mug") || !strings.Contains(got, "@bob") {
		t.Errorf("ClosingLine() with prize = %q", got)
	}
}

func TestResumeLine(t *testing.T) {
	a, clk := testAuction()
	a.Bid("alice", 60)
	clk.advance(10 * time.Second)

	got := ResumeLine(a)
	if !strings.HasPrefix(got, "The auction is back") {
		t.Errorf("ResumeLine() = %q, want resume prefix", got)
	}
	if !strings.Contains(got, "$60") {
		t.Errorf("ResumeLine() = %q, want current high bid", got)
	}
}
