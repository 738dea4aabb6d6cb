package services

import (
	"errors"

	"charitylottery/internal/ledger"
	"charitylottery/internal/models"
)

var (
	ErrAlreadyInitialized   = errors.New("already initialized")
	ErrNotInitialized       = errors.New("lottery is not initialized")
	ErrNotTimeYet           = errors.New("it's not time yet")
	ErrDrawNotStarted       = errors.New("no draw has started yet")
	ErrAlreadyDrawn         = errors.New("winning numbers already drawn for this draw")
	ErrNumbersNotDrawn      = errors.New("winning numbers not drawn for this draw")
	ErrInvalidOwner         = errors.New("owner is required")
	ErrInvalidCommonNumber1 = errors.New("there is a common number out of range")
	ErrInvalidCommonNumber2 = errors.New("there are duplicates in the common numbers")
	ErrInvalidSpecialNumber = errors.New("the special number is out of range")
	ErrTicketExists         = errors.New("a ticket was already bought for this draw")
	ErrTicketNotFound       = errors.New("lottery ticket not found")
	ErrInvalidDrawNumber    = errors.New("the draw number of the lottery ticket is not matched")
	ErrAlreadyChecked       = errors.New("the lottery ticket has already been checked")
	ErrProjectExists        = errors.New("charity project already exists")
	ErrProjectNotFound      = errors.New("charity project not found")
	ErrInvalidProject       = errors.New("invalid charity project")
	ErrInvalidAmount        = errors.New("amount must be positive")

	ErrOverflow          = models.ErrOverflow
	ErrInsufficientPool  = models.ErrInsufficientPool
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
)

// IsPrecondition reports whether err is a rejected request that left state untouched.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrAlreadyInitialized, ErrNotTimeYet, ErrDrawNotStarted, ErrAlreadyDrawn,
		ErrInvalidOwner, ErrInvalidCommonNumber1, ErrInvalidCommonNumber2, ErrInvalidSpecialNumber,
		ErrTicketExists, ErrInvalidDrawNumber, ErrAlreadyChecked, ErrProjectExists,
		ErrInvalidProject, ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err refers to a record that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrNumbersNotDrawn) ||
		errors.Is(err, ErrTicketNotFound) || errors.Is(err, ErrProjectNotFound)
}

// IsArithmetic reports whether err is an overflow or an underfunded debit.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrOverflow) || errors.Is(err, ErrInsufficientPool) || errors.Is(err, ErrInsufficientFunds)
}
