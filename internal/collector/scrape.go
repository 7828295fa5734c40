package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"UpkeepSentinel/internal/model"

	"golang.org/x/net/html"
)

// ScrapeFetcher parses the latest row of the rendered upkeep ledger table.
// The row holds only a time of day, so the payment day is inferred from now.
type ScrapeFetcher struct {
	PageURL string
	Client  *http.Client
}

func NewScrapeFetcher(pageURL, proxyURL string) *ScrapeFetcher {
	return &ScrapeFetcher{PageURL: pageURL, Client: newHTTPClient(proxyURL)}
}

func (f *ScrapeFetcher) Name() string { return "scrape" }

func (f *ScrapeFetcher) Fetch(ctx context.Context, req Request) model.FetchResult {
	if f.PageURL == "" {
		return model.FailureResult(f.Name(), fmt.Errorf("%w: scrape url not configured", model.ErrConfigInvalid))
	}
	body, err := get(ctx, f.Client, f.PageURL, url.Values{"key": {req.Credential}})
	if err != nil {
		return model.FailureResult(f.Name(), err)
	}
	row, err := parseLedgerRow(body)
	if err != nil {
		return model.FailureResult(f.Name(), fmt.Errorf("%w: %v", model.ErrTransientFetch, err))
	}
	if row == nil {
		return model.EmptyResult(f.Name())
	}

	sig := model.PaymentSignal{
		Source:         f.Name(),
		CurrentBalance: model.Balance(row.remaining),
		SourceReliable: true,
	}
	if row.paid > 0 {
		sig.ConfirmedPaidDate = inferPaidDay(row.at, req.Now)
	}
	return model.SignalResult(sig)
}

type ledgerRow struct {
	at        time.Duration // time of day
	paid      int64
	remaining int64
}

// parseLedgerRow returns the first data row of the ledger table, or nil when
// the table has no rows.
func parseLedgerRow(body []byte) (*ledgerRow, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := findTable(doc)
	if table == nil {
		return nil, fmt.Errorf("ledger table not found")
	}

	var cells []string
	walk(table, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells = rowCells(n)
			return len(cells) == 0 // header rows hold <th> only
		}
		return true
	})
	if len(cells) == 0 {
		return nil, nil
	}
	if len(cells) < 3 {
		return nil, fmt.Errorf("ledger row has %d cells, want 3", len(cells))
	}

	at, err := parseTimeOfDay(cells[0])
	if err != nil {
		return nil, err
	}
	paid, err := parseMoney(cells[1])
	if err != nil {
		return nil, fmt.Errorf("paid column: %w", err)
	}
	remaining, err := parseMoney(cells[2])
	if err != nil {
		return nil, fmt.Errorf("remaining column: %w", err)
	}
	return &ledgerRow{at: at, paid: paid, remaining: remaining}, nil
}

// findTable prefers a table whose class mentions upkeep, else the first table.
func findTable(doc *html.Node) *html.Node {
	var first, marked *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "table" {
			return true
		}
		if first == nil {
			first = n
		}
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(strings.ToLower(a.Val), "upkeep") {
				marked = n
				return false
			}
		}
		return true
	})
	if marked != nil {
		return marked
	}
	return first
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			cells = append(cells, strings.TrimSpace(textContent(c)))
		}
	}
	return cells
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func parseTimeOfDay(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("unrecognized time of day %q", s)
}

func parseMoney(s string) (int64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if clean == "" || clean == "-" {
		return 0, nil
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// inferPaidDay assumes the row is from today (UTC) unless its time of day is
// still ahead of now, in which case it must be from yesterday.
func inferPaidDay(at time.Duration, now time.Time) model.Day {
	today := model.DayOf(now)
	if now.UTC().Sub(today.Start()) < at {
		return today.AddDays(-1)
	}
	return today
}
