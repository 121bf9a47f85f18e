package postgres

import (
	"math"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// asBigint narrows an unsigned amount to the signed range of a BIGINT
// column. Amounts beyond math.MaxInt64 fail with domain.ErrOverflow before
// the statement is sent, instead of surfacing as an opaque SQL error.
func asBigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, domain.ErrOverflow
	}
	return int64(v), nil
}
