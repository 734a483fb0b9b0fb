package exchange

import (
	"fmt"
	"math/big"

	xerrors "OpenMCP-DeFi/internal/errors"
)

// InsufficientFundsError reports how far a balance falls short of the
// amount a trade needs, gas included.
type InsufficientFundsError struct {
	Balance  *big.Int
	Required *big.Int
}

// Shortfall returns the missing amount in base units.
func (e *InsufficientFundsError) Shortfall() *big.Int {
	return new(big.Int).Sub(e.Required, e.Balance)
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("余额不足: 需要 %s，持有 %s，缺口 %s",
		e.Required.String(), e.Balance.String(), e.Shortfall().String())
}

// CheckBalance verifies that balance covers amount plus gasCost. A balance
// exactly equal to the requirement passes.
func CheckBalance(balance, amount, gasCost *big.Int) error {
	balance = zeroIfNil(balance)
	required := new(big.Int).Add(zeroIfNil(amount), zeroIfNil(gasCost))
	if balance.Cmp(required) >= 0 {
		return nil
	}
	cause := &InsufficientFundsError{
		Balance:  new(big.Int).Set(balance),
		Required: required,
	}
	return xerrors.Wrap(CodeInsufficientFunds, cause, "账户余额不足")
}
