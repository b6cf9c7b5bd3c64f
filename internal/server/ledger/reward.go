package ledger

import "github.com/holiman/uint256"

// SecondsPerDay converts administrative per-day rates into per-second rates.
const SecondsPerDay = 86400

var secondsPerDay = uint256.NewInt(SecondsPerDay)

// RatePerSecond floors perDay / 86400. Sub-second remainders are dropped and
// never recovered.
func RatePerSecond(perDay *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(perDay, secondsPerDay)
}

// Accrued returns (now - since) * rate using 256-bit checked arithmetic.
// A clock reading earlier than since counts as zero elapsed time.
func Accrued(since, now int64, rate *uint256.Int) (*uint256.Int, error) {
	if now <= since || rate == nil || rate.IsZero() {
		return new(uint256.Int), nil
	}
	elapsed := uint256.NewInt(uint64(now - since))
	v, overflow := new(uint256.Int).MulOverflow(elapsed, rate)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return v, nil
}

// addChecked adds v into sum in place.
func addChecked(sum, v *uint256.Int) error {
	if _, overflow := sum.AddOverflow(sum, v); overflow {
		return ErrArithmeticOverflow
	}
	return nil
}
