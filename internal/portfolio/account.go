package portfolio

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrNotEnoughFunds = errors.New("not enough funds")
)

type cashAccount struct {
	balance decimal.Decimal
	mu      sync.RWMutex
}

func (a *cashAccount) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.balance
}

func (a *cashAccount) Deposit(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	a.balance = a.balance.Add(amount)
	return nil
}

func (a *cashAccount) Withdraw(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	if amount.GreaterThan(a.balance) {
		return ErrNotEnoughFunds
	}

	a.balance = a.balance.Sub(amount)
	return nil
}
