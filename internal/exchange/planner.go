package exchange

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Plan carries the slippage-adjusted parameters of a pending swap.
type Plan struct {
	AmountIn   *big.Int
	MinimumOut *big.Int
	Path       []common.Address
	Deadline   *big.Int
}

// NewPlan derives the minimum acceptable output and the execution deadline
// for a swap. A zero or missing expected output produces a zero minimum,
// which disables slippage protection; callers are expected to warn before
// submitting such a trade.
func NewPlan(amountIn, expectedOut *big.Int, slippagePercent uint, window time.Duration, path []common.Address) Plan {
	return planAt(time.Now(), amountIn, expectedOut, slippagePercent, window, path)
}

func planAt(now time.Time, amountIn, expectedOut *big.Int, slippagePercent uint, window time.Duration, path []common.Address) Plan {
	if slippagePercent > 100 {
		slippagePercent = 100
	}

	minimumOut := new(big.Int)
	if expectedOut != nil && expectedOut.Sign() > 0 {
		keep := big.NewInt(int64(100 - slippagePercent))
		minimumOut.Mul(expectedOut, keep)
		minimumOut.Div(minimumOut, big.NewInt(100))
	}

	return Plan{
		AmountIn:   new(big.Int).Set(zeroIfNil(amountIn)),
		MinimumOut: minimumOut,
		Path:       path,
		Deadline:   big.NewInt(now.Add(window).Unix()),
	}
}

// Protected reports whether the plan enforces a minimum output.
func (p Plan) Protected() bool {
	return p.MinimumOut != nil && p.MinimumOut.Sign() > 0
}

func zeroIfNil(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
