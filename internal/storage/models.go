package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoadRow is one persisted day of training load, keyed by (user_id, date).
// Numeric columns round-trip through decimal so stored values survive
// re-reads without float drift.
type LoadRow struct {
	UserID    string
	Date      time.Time
	TSS       decimal.Decimal
	CTL       decimal.Decimal
	ATL       decimal.Decimal
	TSB       decimal.Decimal
	CreatedAt time.Time
}
