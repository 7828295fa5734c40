package collector

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"UpkeepSentinel/internal/model"

	"github.com/dustin/go-humanize"
)

// EventsFetcher scans the generic event log for an upkeep payment of the
// current daily cost. It never knows the balance, so its signal is unreliable.
type EventsFetcher struct {
	api apiClient
}

func NewEventsFetcher(baseURL, proxyURL string) *EventsFetcher {
	return &EventsFetcher{api: newAPIClient(baseURL, proxyURL)}
}

func (f *EventsFetcher) Name() string { return "events" }

type eventsResponse struct {
	Events map[string]struct {
		Timestamp int64  `json:"timestamp"`
		Event     string `json:"event"`
	} `json:"events"`
}

func (f *EventsFetcher) Fetch(ctx context.Context, req Request) model.FetchResult {
	var resp eventsResponse
	query := url.Values{"selections": {"events"}, "key": {req.Credential}}
	if err := f.api.getJSON(ctx, "/user/", query, &resp); err != nil {
		return model.FailureResult(f.Name(), err)
	}

	var latest int64
	for _, ev := range resp.Events {
		if ev.Timestamp > latest && mentionsUpkeepPayment(ev.Event, req.DailyCost) {
			latest = ev.Timestamp
		}
	}
	if latest == 0 {
		return model.EmptyResult(f.Name())
	}
	return model.SignalResult(model.PaymentSignal{
		Source:            f.Name(),
		ConfirmedPaidDate: model.DayOf(time.Unix(latest, 0)),
	})
}

// amountPattern finds whole numbers, optionally comma-grouped.
var amountPattern = regexp.MustCompile(`\d[\d,]*`)

// mentionsUpkeepPayment reports whether text names upkeep together with the
// cost as a whole number, written either plain (352500) or grouped (352,500).
// Digits of a larger amount such as 1352500 do not count.
func mentionsUpkeepPayment(text string, dailyCost int64) bool {
	if dailyCost <= 0 {
		return false
	}
	if !strings.Contains(strings.ToLower(text), "upkeep") {
		return false
	}
	plain, grouped := strconv.FormatInt(dailyCost, 10), humanize.Comma(dailyCost)
	for _, tok := range amountPattern.FindAllString(text, -1) {
		tok = strings.TrimRight(tok, ",")
		if tok == plain || tok == grouped {
			return true
		}
	}
	return false
}
