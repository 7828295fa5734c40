package model

// PaymentSignal is the normalized output of one payment feed fetch.
type PaymentSignal struct {
	Source string

	// ConfirmedPaidDate is zero when the source saw no payment.
	ConfirmedPaidDate Day
	// CurrentBalance is nil when the source does not report a balance.
	CurrentBalance *int64
	// DailyCostObserved is 0 when the source does not report the cost.
	DailyCostObserved int64

	SourceReliable bool
}

// IsEmpty reports whether the signal carries no payment information at all.
func (s PaymentSignal) IsEmpty() bool {
	return s.ConfirmedPaidDate.IsZero() && s.CurrentBalance == nil && s.DailyCostObserved == 0
}

// Balance is a helper for building signals with a balance.
func Balance(v int64) *int64 { return &v }

// ResultKind tags the outcome of a fetch.
type ResultKind int

const (
	ResultSignal ResultKind = iota
	ResultEmpty
	ResultFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultSignal:
		return "signal"
	case ResultEmpty:
		return "empty"
	default:
		return "failure"
	}
}

// FetchResult is what a payment feed hands back across its boundary.
// Err is set only for ResultFailure.
type FetchResult struct {
	Kind   ResultKind
	Source string
	Signal PaymentSignal
	Err    error
}

func SignalResult(sig PaymentSignal) FetchResult {
	if sig.IsEmpty() {
		return EmptyResult(sig.Source)
	}
	return FetchResult{Kind: ResultSignal, Source: sig.Source, Signal: sig}
}

func EmptyResult(source string) FetchResult {
	return FetchResult{Kind: ResultEmpty, Source: source, Signal: PaymentSignal{Source: source}}
}

func FailureResult(source string, err error) FetchResult {
	return FetchResult{Kind: ResultFailure, Source: source, Err: err}
}
