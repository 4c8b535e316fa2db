package model

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// StockRow is one normalized daily observation for a symbol.
//
// The pair (Symbol, Ts) is the unique key in the store; re-ingesting the
// same key overwrites the price fields (last write wins) instead of
// creating a duplicate row.
type StockRow struct {
	Symbol string
	Ts     time.Time

	// Price fields are nullable: a field the provider omitted or that
	// failed numeric coercion is stored as NULL, not zero.
	Open  null.Float
	High  null.Float
	Low   null.Float
	Close null.Float

	// Volume is NULL when missing, non-numeric, or negative.
	Volume null.Int

	// Raw is the provider's original JSON fragment for this date,
	// retained for auditability.
	Raw json.RawMessage
}
