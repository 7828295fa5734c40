package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"UpkeepSentinel/internal/model"
)

// Collector tries its fetchers in order until one yields a signal.
type Collector struct {
	Fetchers []Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetchers ...Fetcher) *Collector {
	return &Collector{Fetchers: fetchers}
}

// Names lists the fetchers in the order they are tried.
func (c *Collector) Names() string {
	names := make([]string, 0, len(c.Fetchers))
	for _, f := range c.Fetchers {
		names = append(names, f.Name())
	}
	return strings.Join(names, ",")
}

// Fetch walks the chain. Empty results let the next fetcher try; credential
// failures stop the chain because every fetcher shares the same key.
func (c *Collector) Fetch(ctx context.Context, req Request) model.FetchResult {
	if !usableCredential(req.Credential) {
		return model.FailureResult("collector", model.ErrCredentialMissing)
	}
	if len(c.Fetchers) == 0 {
		return model.FailureResult("collector", fmt.Errorf("%w: no payment feeds configured", model.ErrConfigInvalid))
	}

	var (
		empty   *model.FetchResult
		lastErr model.FetchResult
	)
	for _, f := range c.Fetchers {
		if err := ctx.Err(); err != nil {
			return model.FailureResult(f.Name(), fmt.Errorf("%w: %v", model.ErrTransientFetch, err))
		}
		res := f.Fetch(ctx, req)
		switch res.Kind {
		case model.ResultSignal:
			log.Printf("[INFO] %s: payment signal (paid=%s reliable=%v)", f.Name(), res.Signal.ConfirmedPaidDate, res.Signal.SourceReliable)
			return res
		case model.ResultEmpty:
			log.Printf("[INFO] %s: no matching entries", f.Name())
			r := res
			if empty == nil {
				empty = &r
			}
		default:
			if model.IsCredentialError(res.Err) {
				log.Printf("[WARN] %s: %v", f.Name(), res.Err)
				return res
			}
			log.Printf("[WARN] %s failed, trying next source: %v", f.Name(), res.Err)
			lastErr = res
		}
	}
	if empty != nil {
		return *empty
	}
	if lastErr.Err == nil {
		lastErr = model.FailureResult("collector", errors.New("all payment feeds failed"))
	}
	return lastErr
}

func usableCredential(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != model.Unconfigured
}
