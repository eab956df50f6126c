package monitor

import "github.com/iniduniaku/signaltradingbot/internal/model"

// archive is a bounded circular history of trades that reached a terminal
// status. Pushing at capacity overwrites the oldest entry. Readers see the
// newest trade first.
type archive struct {
	buf  []model.Trade
	head int // next write slot
	size int
}

func newArchive(capacity int) *archive {
	if capacity < 1 {
		capacity = 1
	}
	return &archive{buf: make([]model.Trade, capacity)}
}

func (a *archive) push(t model.Trade) {
	a.buf[a.head] = t
	a.head = (a.head + 1) % len(a.buf)
	if a.size < len(a.buf) {
		a.size++
	}
}

// items returns the archived trades, newest first.
func (a *archive) items() []model.Trade {
	out := make([]model.Trade, 0, a.size)
	for i := 1; i <= a.size; i++ {
		out = append(out, a.buf[(a.head-i+len(a.buf))%len(a.buf)])
	}
	return out
}

func (a *archive) len() int { return a.size }
