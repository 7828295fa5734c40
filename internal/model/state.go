package model

// AccountingState is derived from Settings at the instant of a query.
type AccountingState struct {
	Today                Day
	Owed                 int64
	IsSelfTurn           bool
	EffectiveLastPayment Day
	Override             TurnOverride
}

// ReminderWorthy reports whether the self party should be reminded to pay.
func (s AccountingState) ReminderWorthy() bool {
	return s.IsSelfTurn && s.Owed > 0
}
