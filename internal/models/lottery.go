package models

import (
	"errors"
	"math"
)

// Ranges of the numbers a combination is made of.
const (
	CommonNumberCount = 5
	MaxCommonNumber   = 64
	MaxSpecialNumber  = 32
)

// Amounts are in base units of the payment currency (1e6 per "unit").
const (
	PayoutUnit         uint64 = 1_000_000
	TicketContribution uint64 = 2 * PayoutUnit
	GuideFee           uint64 = 1 * PayoutUnit
	MintFee            uint64 = 1 * PayoutUnit
	CharityDecimals    uint8  = 6
)

var (
	ErrOverflow         = errors.New("arithmetic overflow")
	ErrInsufficientPool = errors.New("prize pool cannot cover the payout")
)

// DrawRecorder tracks the current draw and the epoch in which it started.
// There is a single recorder for the whole lottery.
type DrawRecorder struct {
	DrawNumber uint64 `json:"drawNumber"`
	Epoch      uint64 `json:"epoch"`
}

// WinningNumbers is written once per draw and never changes afterwards.
type WinningNumbers struct {
	DrawNumber    uint64   `json:"drawNumber"`
	CommonNumbers [5]uint8 `json:"commonNumbers"`
	SpecialNumber uint8    `json:"specialNumber"`
}

// Ticket is a purchase bound to the draw that was current when it was bought.
type Ticket struct {
	Owner         string   `json:"owner"`
	DrawNumber    uint64   `json:"drawNumber"`
	CommonNumbers [5]uint8 `json:"commonNumbers"`
	SpecialNumber uint8    `json:"specialNumber"`
	IsChecked     bool     `json:"isChecked"`
}

// PrizePool is the running balance funded by purchases and drained by winners.
type PrizePool struct {
	TotalPrize uint64 `json:"totalPrize"`
}

// Credit adds a purchase contribution to the pool.
func (p *PrizePool) Credit(amount uint64) error {
	if p.TotalPrize > math.MaxUint64-amount {
		return ErrOverflow
	}
	p.TotalPrize += amount
	return nil
}

// Debit removes a fixed payout from the pool.
func (p *PrizePool) Debit(amount uint64) error {
	if amount > p.TotalPrize {
		return ErrInsufficientPool
	}
	p.TotalPrize -= amount
	return nil
}

// Drain empties the pool and returns what it held.
func (p *PrizePool) Drain() uint64 {
	total := p.TotalPrize
	p.TotalPrize = 0
	return total
}

// CharityMint describes the fungible charity token given to ticket buyers.
type CharityMint struct {
	Decimals uint8  `json:"decimals"`
	Supply   uint64 `json:"supply"`
}

// OneToken returns the number of base units in a whole token.
func (m CharityMint) OneToken() uint64 {
	one := uint64(1)
	for i := uint8(0); i < m.Decimals; i++ {
		one *= 10
	}
	return one
}

// CharityProject is a fundraising target that accepts charity tokens.
type CharityProject struct {
	Creator     string `json:"creator"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Balance is an account's holding in either the payment currency or charity tokens.
type Balance struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// Outcome is the result of settling a single ticket.
type Outcome struct {
	Owner         string `json:"owner"`
	DrawNumber    uint64 `json:"drawNumber"`
	CommonMatches int    `json:"commonMatches"`
	SpecialMatch  bool   `json:"specialMatch"`
	Jackpot       bool   `json:"jackpot"`
	Payout        uint64 `json:"payout"`
	PoolAfter     uint64 `json:"poolAfter"`
}

// Won reports whether the ticket earned anything.
func (o Outcome) Won() bool {
	return o.Jackpot || o.Payout > 0
}
