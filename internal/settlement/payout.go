package settlement

import (
	"errors"
	"math"

	"github.com/holiman/uint256"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ErrZeroWinningPool is an internal invariant violation: no legitimate
// winning bet can exist when the winning pool is zero, so reaching the share
// computation with one means the caller's bookkeeping is corrupt. It is not
// a user-facing rejection.
var ErrZeroWinningPool = errors.New("settlement: winning pool is zero with an eligible winner")

// Share computes floor(amount * losingPool / winningPool), the winner's
// proportional slice of the losing pool. The multiply runs in 256-bit
// intermediate width so amount x pool can never wrap, and the result is
// narrowed back with an explicit fit check.
func Share(amount, losingPool, winningPool uint64) (uint64, error) {
	if winningPool == 0 {
		return 0, ErrZeroWinningPool
	}

	product := new(uint256.Int).Mul(
		uint256.NewInt(amount),
		uint256.NewInt(losingPool),
	)
	quotient := new(uint256.Int).Div(product, uint256.NewInt(winningPool))

	if !quotient.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return quotient.Uint64(), nil
}

// Winnings computes the full payout for a winning bet: the returned
// principal plus the proportional share of the losing pool.
func Winnings(amount, winningPool, losingPool uint64) (uint64, error) {
	share, err := Share(amount, losingPool, winningPool)
	if err != nil {
		return 0, err
	}
	return AddU64(amount, share)
}

// AddU64 is a checked uint64 addition. Overflow aborts the whole operation;
// it is never wrapped silently.
func AddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, domain.ErrOverflow
	}
	return a + b, nil
}

// AddU32 is a checked uint32 addition.
func AddU32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, domain.ErrOverflow
	}
	return a + b, nil
}
