package collector

import (
	"context"
	"time"

	"UpkeepSentinel/internal/model"
)

// Request carries what a fetcher needs to look for a payment.
type Request struct {
	Credential string
	DailyCost  int64
	Now        time.Time
}

// Fetcher reads one payment feed and normalizes it into a FetchResult.
// Implementations never panic or return raw errors: failures come back as
// model.ResultFailure wrapping one of the model error sentinels.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) model.FetchResult
	Name() string
}
