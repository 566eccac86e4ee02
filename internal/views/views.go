// Package views turns fetched datasets into the filtered, paginated tables
// that are rendered on screen and written to export files.
package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/volumebot/console/internal/clients/volumebot"
)

// DefaultPageSize is the number of rows requested per page.
const DefaultPageSize = 10

// LatestTradesLimit caps the trades shown on the dashboard.
const LatestTradesLimit = 50

// DateLayout is the layout of date filter inputs.
const DateLayout = "2006-01-02"

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DefaultDateRange is one month ago through today.
func DefaultDateRange(now time.Time) DateRange {
	today := startOfDay(now)
	return DateRange{Start: today.AddDate(0, -1, 0), End: today}
}

// ParseDateRange parses YYYY-MM-DD bounds; an empty bound keeps the default.
func ParseDateRange(start, end string, now time.Time) (DateRange, error) {
	r := DefaultDateRange(now)
	if start != "" {
		t, err := time.ParseInLocation(DateLayout, start, now.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation(DateLayout, end, now.Location())
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		r.End = t
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate checks Start is not after End.
func (r DateRange) Validate() error {
	if startOfDay(r.Start).After(startOfDay(r.End)) {
		return fmt.Errorf("start date %s is after end date %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether t falls on a day within the range.
func (r DateRange) Contains(t time.Time) bool {
	t = t.In(r.Start.Location())
	return !t.Before(startOfDay(r.Start)) && !t.After(volumebot.EndOfDay(r.End))
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Pagination tracks the current page of a server-paginated list.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// NewPagination starts on page 1 of 1.
func NewPagination(pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Pagination{Page: 1, PageSize: pageSize, TotalPages: 1}
}

// Apply takes totals from a server response. A missing total falls back to
// the number of rows received and missing total pages to 1.
func (p Pagination) Apply(server volumebot.Pagination, received int) Pagination {
	p.TotalItems = server.Total
	if p.TotalItems == 0 {
		p.TotalItems = received
	}
	p.TotalPages = server.TotalPages
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.Page > p.TotalPages {
		p.Page = p.TotalPages
	}
	return p
}

// Next returns the following page, clamped to the last page.
func (p Pagination) Next() Pagination {
	if p.Page < p.TotalPages {
		p.Page++
	}
	return p
}

// Prev returns the previous page, clamped to page 1.
func (p Pagination) Prev() Pagination {
	if p.Page > 1 {
		p.Page--
	}
	return p
}

// HasNext reports whether Next would move.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether Prev would move.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// Label renders "Page 2 of 5 (43 balances)".
func (p Pagination) Label(noun string) string {
	return fmt.Sprintf("Page %d of %d (%d %s)", p.Page, p.TotalPages, p.TotalItems, noun)
}

// FilterBalances keeps balances whose id or totals contain search.
func FilterBalances(balances []volumebot.Balance, search string) []volumebot.Balance {
	out := make([]volumebot.Balance, 0, len(balances))
	for _, b := range balances {
		if search == "" ||
			strings.Contains(strconv.FormatInt(b.ID, 10), search) ||
			strings.Contains(b.TotalUSDT.String(), search) ||
			strings.Contains(b.TotalBNB.String(), search) ||
			strings.Contains(b.TotalToken.String(), search) {
			out = append(out, b)
		}
	}
	return out
}

// FilterTopups keeps top-ups whose wallet, token type or tx hash contain
// search, ignoring case.
func FilterTopups(topups []volumebot.Topup, search string) []volumebot.Topup {
	needle := strings.ToLower(search)
	out := make([]volumebot.Topup, 0, len(topups))
	for _, t := range topups {
		if needle == "" ||
			strings.Contains(strings.ToLower(t.WalletAddress), needle) ||
			strings.Contains(strings.ToLower(t.TokenType), needle) ||
			strings.Contains(strings.ToLower(t.TxHash), needle) {
			out = append(out, t)
		}
	}
	return out
}

// TradeFilter selects trades.
type TradeFilter struct {
	Search string
	// Type is "buy", "sell" or empty for both.
	Type  string
	Range DateRange
}

// FilterTrades keeps trades matching every set criterion.
func FilterTrades(trades []volumebot.Trade, f TradeFilter) []volumebot.Trade {
	needle := strings.ToLower(f.Search)
	side := strings.ToLower(f.Type)
	out := make([]volumebot.Trade, 0, len(trades))
	for _, t := range trades {
		if side != "" && strings.ToLower(t.Type) != side {
			continue
		}
		if !f.Range.IsZero() && !f.Range.Contains(t.Timestamp) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.WalletAddress), needle) &&
			!strings.Contains(strings.ToLower(t.Type), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Latest returns at most limit trades from the front of the list.
func Latest(trades []volumebot.Trade, limit int) []volumebot.Trade {
	if limit >= 0 && len(trades) > limit {
		return trades[:limit]
	}
	return trades
}

// NextTradeType cycles "" -> buy -> sell -> "".
func NextTradeType(current string) string {
	switch current {
	case "":
		return volumebot.TradeBuy
	case volumebot.TradeBuy:
		return volumebot.TradeSell
	default:
		return ""
	}
}
