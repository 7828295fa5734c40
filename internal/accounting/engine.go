// Package accounting folds payment signals into the shared upkeep settings
// and derives how much is owed and whose turn it is to pay.
package accounting

import (
	"UpkeepSentinel/internal/calculator"
	"UpkeepSentinel/internal/model"
)

// Fold applies one fetch result to s as of the logical day today.
//
// A reliable balance overwrites the owed amount. Otherwise a payment newer
// than the last known one restarts accrual from the payment day, unless it
// comes from an unreliable source and a reliable balance observed on or after
// that day already covers it. With no new information the owed amount is
// accrued from the last baseline. Failed fetches only re-accrue and never
// touch LastSyncDate.
//
// Folding the same result twice yields the same settings.
func Fold(s model.Settings, res model.FetchResult, today model.Day) (model.Settings, model.AccountingState) {
	next := s

	if res.Kind != model.ResultFailure {
		sig := res.Signal

		// Cost drift is adopted first so any accrual below uses the new price.
		if sig.DailyCostObserved > 0 && sig.DailyCostObserved != next.DailyCost {
			next.DailyCost = sig.DailyCostObserved
		}

		paid := sig.ConfirmedPaidDate
		if !paid.IsZero() && paid.After(today) {
			paid = today
		}
		newPayment := !paid.IsZero() &&
			(next.LastPaymentDate.IsZero() || paid.After(next.LastPaymentDate))

		switch {
		case sig.CurrentBalance != nil && sig.SourceReliable:
			next.OwedBase = nonNegative(*sig.CurrentBalance)
			next.OwedAsOf = today
			if newPayment {
				next.LastPaymentDate = paid
			}
		case newPayment && !sig.SourceReliable && !next.OwedAsOf.IsZero() && !paid.After(next.OwedAsOf):
			// A reliable balance seen on or after this payment already covers it.
			next.LastPaymentDate = paid
		case newPayment:
			next.LastPaymentDate = paid
			next.OwedBase = 0
			next.OwedAsOf = paid
		case sig.CurrentBalance != nil:
			// An unreliable balance may raise the debt but never lower it.
			if b := nonNegative(*sig.CurrentBalance); b > accrued(next, today) {
				next.OwedBase = b
				next.OwedAsOf = today
			}
		}
		next.LastSyncDate = today
	}

	next.AmountOwed = accrued(next, today)
	return next, Evaluate(next, today)
}

// Evaluate derives the accounting state from s without changing it.
func Evaluate(s model.Settings, today model.Day) model.AccountingState {
	return model.AccountingState{
		Today:                today,
		Owed:                 accrued(s, today),
		IsSelfTurn:           IsSelfTurn(s, today),
		EffectiveLastPayment: s.LastPaymentDate,
		Override:             s.TurnOverride,
	}
}

// IsSelfTurn decides whose turn it is to pay on today.
//
// A manual override wins. A payment made today hands the turn to the
// counterparty. After a payment the turn alternates daily: an odd number of
// days since the payment is self's turn. Without any payment history the
// parity of days since the cycle anchor decides, even meaning self.
func IsSelfTurn(s model.Settings, today model.Day) bool {
	switch s.TurnOverride {
	case model.OverrideSelf:
		return true
	case model.OverrideCounterparty:
		return false
	}

	if !s.LastPaymentDate.IsZero() {
		if s.LastPaymentDate.Equal(today) {
			return false
		}
		return calculator.Mod2(s.LastPaymentDate.DaysUntil(today)) == 1
	}

	anchor := s.CycleAnchor
	if anchor.IsZero() {
		anchor = today
	}
	return calculator.Mod2(anchor.DaysUntil(today)) == 0
}

// accrued is the owed amount on today. The baseline is the last observed
// balance, unless a later payment superseded it.
func accrued(s model.Settings, today model.Day) int64 {
	base, asOf := s.OwedBase, s.OwedAsOf
	if asOf.IsZero() || (!s.LastPaymentDate.IsZero() && s.LastPaymentDate.After(asOf)) {
		if s.LastPaymentDate.IsZero() {
			return nonNegative(s.AmountOwed)
		}
		base, asOf = 0, s.LastPaymentDate
	}
	return calculator.Accrue(base, s.DailyCost, asOf, today)
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
