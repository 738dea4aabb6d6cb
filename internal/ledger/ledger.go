// Package ledger moves amounts between account balances kept in storage.
// Callers pass the transaction of the operation the transfer belongs to.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"charitylottery/internal/models"
	"charitylottery/internal/storage"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = models.ErrOverflow
)

// Balance returns the amount held at key, zero when no record exists.
func Balance(tx storage.Tx, key storage.Key) (uint64, error) {
	var b models.Balance
	err := tx.Get(key, &b)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}

// Credit adds amount to the balance at key.
func Credit(tx storage.Tx, key storage.Key, amount uint64) error {
	bal, err := Balance(tx, key)
	if err != nil {
		return err
	}
	if bal > math.MaxUint64-amount {
		return fmt.Errorf("credit %s: %w", key, ErrOverflow)
	}
	return tx.Put(key, models.Balance{Account: key.ID, Amount: bal + amount})
}

// Debit removes amount from the balance at key.
func Debit(tx storage.Tx, key storage.Key, amount uint64) error {
	bal, err := Balance(tx, key)
	if err != nil {
		return err
	}
	if amount > bal {
		return fmt.Errorf("debit %s: %w (have %d, need %d)", key, ErrInsufficientFunds, bal, amount)
	}
	return tx.Put(key, models.Balance{Account: key.ID, Amount: bal - amount})
}

// Pay credits an account's payment-currency balance.
func Pay(tx storage.Tx, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return Credit(tx, storage.BalanceKey(to), amount)
}

// Transfer moves amount from one balance to another.
func Transfer(tx storage.Tx, from, to storage.Key, amount uint64) error {
	if err := Debit(tx, from, amount); err != nil {
		return err
	}
	return Credit(tx, to, amount)
}
