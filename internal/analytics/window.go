package analytics

import (
	"time"

	"github.com/go-faster/errors"

	"github.com/deniyaya/teashop/internal/domain/order"
)

// ErrUnknownWindow is returned for a window token other than 7d, 30d, 90d or 1y.
var ErrUnknownWindow = errors.New("unknown time window")

const day = 24 * time.Hour

// Window is a trailing reporting period.
type Window struct {
	Token string
	Days  int
}

// DefaultWindow is used when a report request names no window.
var DefaultWindow = Window{Token: "30d", Days: 30}

var windows = map[string]Window{
	"7d":  {Token: "7d", Days: 7},
	"30d": DefaultWindow,
	"90d": {Token: "90d", Days: 90},
	"1y":  {Token: "1y", Days: 365},
}

// ParseWindow resolves a window token. An empty token yields DefaultWindow.
func ParseWindow(token string) (Window, error) {
	if token == "" {
		return DefaultWindow, nil
	}
	w, ok := windows[token]
	if !ok {
		return Window{}, errors.Wrapf(ErrUnknownWindow, "%q", token)
	}
	return w, nil
}

// Cutoff is the earliest instant inside the window ending at now.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(w.Days) * day)
}

// FilterOrders keeps the orders created at or after the window cutoff.
func FilterOrders(orders []order.Order, w Window, now time.Time) []order.Order {
	cutoff := w.Cutoff(now)
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if !o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out
}
