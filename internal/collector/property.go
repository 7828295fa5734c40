package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"UpkeepSentinel/internal/model"
)

// PropertyFetcher reads the property record: the upkeep cost, the balance
// still due and the payment history. It is the authoritative source.
type PropertyFetcher struct {
	api        apiClient
	PropertyID string
}

func NewPropertyFetcher(baseURL, propertyID, proxyURL string) *PropertyFetcher {
	return &PropertyFetcher{api: newAPIClient(baseURL, proxyURL), PropertyID: propertyID}
}

func (f *PropertyFetcher) Name() string { return "property" }

type propertyResponse struct {
	Property *struct {
		Upkeep struct {
			Property int64 `json:"property"`
			Staff    int64 `json:"staff"`
		} `json:"upkeep"`
		UpkeepDue *int64 `json:"upkeep_due"`
		Payments  []struct {
			Timestamp int64 `json:"timestamp"`
			Amount    int64 `json:"amount"`
		} `json:"payments"`
	} `json:"property"`
}

func (f *PropertyFetcher) Fetch(ctx context.Context, req Request) model.FetchResult {
	if f.PropertyID == "" {
		return model.FailureResult(f.Name(), fmt.Errorf("%w: property id not configured", model.ErrConfigInvalid))
	}

	var resp propertyResponse
	query := url.Values{"selections": {"property"}, "key": {req.Credential}}
	if err := f.api.getJSON(ctx, "/property/"+url.PathEscape(f.PropertyID), query, &resp); err != nil {
		return model.FailureResult(f.Name(), err)
	}
	if resp.Property == nil {
		return model.FailureResult(f.Name(), fmt.Errorf("%w: response has no property record", model.ErrTransientFetch))
	}

	p := resp.Property
	sig := model.PaymentSignal{Source: f.Name(), SourceReliable: true}
	if cost := p.Upkeep.Property + p.Upkeep.Staff; cost > 0 {
		sig.DailyCostObserved = cost
	}
	if p.UpkeepDue != nil {
		due := *p.UpkeepDue
		if due < 0 {
			due = 0
		}
		sig.CurrentBalance = model.Balance(due)
	}
	// History is newest first.
	if len(p.Payments) > 0 && p.Payments[0].Timestamp > 0 {
		sig.ConfirmedPaidDate = model.DayOf(time.Unix(p.Payments[0].Timestamp, 0))
	}
	return model.SignalResult(sig)
}
