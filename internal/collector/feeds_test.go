package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"UpkeepSentinel/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubClient(status int, body string, seen **http.Request) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if seen != nil {
				*seen = req
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}
}

var now = time.Date(2025, 3, 26, 18, 0, 0, 0, time.UTC)

func testRequest() Request {
	return Request{Credential: "test-key", DailyCost: 352500, Now: now}
}

func TestPropertyFetcherReadsBalanceAndHistory(t *testing.T) {
	paidAt := time.Date(2025, 3, 25, 9, 30, 0, 0, time.UTC).Unix()
	body := `{"property":{"upkeep":{"property":300000,"staff":52500},"upkeep_due":352500,` +
		`"payments":[{"timestamp":` + itoa(paidAt) + `,"amount":352500},{"timestamp":1,"amount":352500}]}}`

	var seen *http.Request
	f := NewPropertyFetcher("https://example.test", "12345", "")
	f.api.Client = stubClient(http.StatusOK, body, &seen)

	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultSignal {
		t.Fatalf("Kind = %v, err = %v; want signal", res.Kind, res.Err)
	}
	if seen.URL.Path != "/property/12345" {
		t.Fatalf("path = %q, want /property/12345", seen.URL.Path)
	}
	if seen.URL.Query().Get("key") != "test-key" || seen.URL.Query().Get("selections") != "property" {
		t.Fatalf("query = %q", seen.URL.RawQuery)
	}
	sig := res.Signal
	if !sig.SourceReliable {
		t.Error("property signal should be reliable")
	}
	if sig.CurrentBalance == nil || *sig.CurrentBalance != 352500 {
		t.Errorf("CurrentBalance = %v, want 352500", sig.CurrentBalance)
	}
	if sig.DailyCostObserved != 352500 {
		t.Errorf("DailyCostObserved = %d, want 352500", sig.DailyCostObserved)
	}
	if sig.ConfirmedPaidDate.String() != "2025-03-25" {
		t.Errorf("ConfirmedPaidDate = %s, want 2025-03-25", sig.ConfirmedPaidDate)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"incorrect key", http.StatusOK, `{"error":{"code":2,"error":"Incorrect key"}}`, model.ErrCredentialInvalid},
		{"paused key", http.StatusOK, `{"error":{"code":18,"error":"Paused"}}`, model.ErrCredentialInvalid},
		{"rate limited", http.StatusOK, `{"error":{"code":5,"error":"Too many requests"}}`, model.ErrTransientFetch},
		{"server error", http.StatusBadGateway, `bad gateway`, model.ErrTransientFetch},
		{"garbage", http.StatusOK, `<html>`, model.ErrTransientFetch},
		{"forbidden", http.StatusForbidden, `{}`, model.ErrCredentialInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewEventsFetcher("https://example.test", "")
			f.api.Client = stubClient(tt.status, tt.body, nil)
			res := f.Fetch(context.Background(), testRequest())
			if res.Kind != model.ResultFailure {
				t.Fatalf("Kind = %v, want failure", res.Kind)
			}
			if !errors.Is(res.Err, tt.want) {
				t.Fatalf("err = %v, want %v", res.Err, tt.want)
			}
		})
	}
}

func TestEventsFetcherMatchesUpkeepAndCost(t *testing.T) {
	older := time.Date(2025, 3, 24, 10, 0, 0, 0, time.UTC).Unix()
	newer := time.Date(2025, 3, 26, 7, 0, 0, 0, time.UTC).Unix()
	other := time.Date(2025, 3, 26, 12, 0, 0, 0, time.UTC).Unix()
	body := `{"events":{` +
		`"1":{"timestamp":` + itoa(older) + `,"event":"You paid $352500 upkeep on your Private Island"},` +
		`"2":{"timestamp":` + itoa(newer) + `,"event":"You paid <b>$352,500</b> Upkeep for your property"},` +
		`"3":{"timestamp":` + itoa(other) + `,"event":"You were paid $352,500 for a trade"}}}`

	var seen *http.Request
	f := NewEventsFetcher("https://example.test", "")
	f.api.Client = stubClient(http.StatusOK, body, &seen)

	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultSignal {
		t.Fatalf("Kind = %v, err = %v; want signal", res.Kind, res.Err)
	}
	if seen.URL.Path != "/user/" || seen.URL.Query().Get("selections") != "events" {
		t.Fatalf("request = %s", seen.URL)
	}
	if res.Signal.ConfirmedPaidDate.String() != "2025-03-26" {
		t.Errorf("ConfirmedPaidDate = %s, want 2025-03-26", res.Signal.ConfirmedPaidDate)
	}
	if res.Signal.SourceReliable || res.Signal.CurrentBalance != nil {
		t.Error("events signal must be unreliable and carry no balance")
	}
}

func TestEventsFetcherNoMatchIsEmpty(t *testing.T) {
	f := NewEventsFetcher("https://example.test", "")
	f.api.Client = stubClient(http.StatusOK, `{"events":{"1":{"timestamp":5,"event":"upkeep of $100"}}}`, nil)
	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultEmpty {
		t.Fatalf("Kind = %v, want empty", res.Kind)
	}
	if res.Err != nil {
		t.Fatalf("Err = %v, want nil", res.Err)
	}
}

func TestScrapeFetcherParsesFirstRow(t *testing.T) {
	page := `<html><body>
<table class="menu"><tr><td>nav</td></tr></table>
<table class="upkeep-ledger">
  <thead><tr><th>Time</th><th>Paid</th><th>Remaining</th></tr></thead>
  <tbody>
    <tr><td>14:32:10</td><td>$352,500</td><td><span>$0</span></td></tr>
    <tr><td>09:00:00</td><td>$352,500</td><td>$352,500</td></tr>
  </tbody>
</table></body></html>`

	f := NewScrapeFetcher("https://example.test/properties.php", "")
	f.Client = stubClient(http.StatusOK, page, nil)
	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultSignal {
		t.Fatalf("Kind = %v, err = %v; want signal", res.Kind, res.Err)
	}
	if res.Signal.CurrentBalance == nil || *res.Signal.CurrentBalance != 0 {
		t.Errorf("CurrentBalance = %v, want 0", res.Signal.CurrentBalance)
	}
	if res.Signal.ConfirmedPaidDate.String() != "2025-03-26" {
		t.Errorf("ConfirmedPaidDate = %s, want 2025-03-26", res.Signal.ConfirmedPaidDate)
	}
}

func TestScrapeFetcherTimeAheadOfNowMeansYesterday(t *testing.T) {
	page := `<table><tr><td>21:15</td><td>$352,500</td><td>$352,500</td></tr></table>`
	f := NewScrapeFetcher("https://example.test/p", "")
	f.Client = stubClient(http.StatusOK, page, nil)
	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultSignal {
		t.Fatalf("Kind = %v, err = %v; want signal", res.Kind, res.Err)
	}
	if res.Signal.ConfirmedPaidDate.String() != "2025-03-25" {
		t.Errorf("ConfirmedPaidDate = %s, want 2025-03-25", res.Signal.ConfirmedPaidDate)
	}
}

func TestScrapeFetcherEmptyAndBroken(t *testing.T) {
	f := NewScrapeFetcher("https://example.test/p", "")
	f.Client = stubClient(http.StatusOK, `<table><tr><th>Time</th></tr></table>`, nil)
	if res := f.Fetch(context.Background(), testRequest()); res.Kind != model.ResultEmpty {
		t.Errorf("header-only table: Kind = %v, want empty", res.Kind)
	}

	f.Client = stubClient(http.StatusOK, `<p>maintenance</p>`, nil)
	res := f.Fetch(context.Background(), testRequest())
	if res.Kind != model.ResultFailure || !errors.Is(res.Err, model.ErrTransientFetch) {
		t.Errorf("no table: Kind = %v, err = %v; want transient failure", res.Kind, res.Err)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestMentionsUpkeepPaymentWholeAmounts(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"You paid $352500 upkeep", true},
		{"You paid $352,500 upkeep.", true},
		{"Upkeep of 352,500, paid", true},
		{"You paid $1352500 upkeep", false},
		{"You paid $1,352,500 upkeep", false},
		{"You paid $3525000 upkeep", false},
		{"You paid $352,5001 upkeep", false},
		{"You paid $352,500 for a trade", false},
	}
	for _, tt := range tests {
		if got := mentionsUpkeepPayment(tt.text, 352500); got != tt.want {
			t.Errorf("mentionsUpkeepPayment(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
