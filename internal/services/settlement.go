package services

import (
	"math/bits"

	"charitylottery/internal/models"
	"charitylottery/internal/numbers"
)

// Payout is a prize tier expressed in payout units, or the whole pool.
type Payout struct {
	Units   uint64
	Jackpot bool
}

// PayoutFor looks up the prize tier for a match result.
func PayoutFor(commonMatches int, specialMatch bool) Payout {
	switch {
	case commonMatches == 5 && specialMatch:
		return Payout{Jackpot: true}
	case commonMatches == 5:
		return Payout{Units: 200_000}
	case commonMatches == 4 && specialMatch:
		return Payout{Units: 100_000}
	case commonMatches == 4, commonMatches == 3 && specialMatch:
		return Payout{Units: 200}
	case commonMatches == 3, commonMatches == 2 && specialMatch:
		return Payout{Units: 32}
	case commonMatches <= 1 && specialMatch:
		return Payout{Units: 8}
	}
	return Payout{}
}

// Settle compares a ticket with the winning numbers of its draw, moves the
// prize out of the pool and marks the ticket checked. Ticket and pool are
// only modified when Settle returns nil.
func Settle(ticket *models.Ticket, winning models.WinningNumbers, pool *models.PrizePool) (models.Outcome, error) {
	if winning.DrawNumber != ticket.DrawNumber {
		return models.Outcome{}, ErrInvalidDrawNumber
	}
	if ticket.IsChecked {
		return models.Outcome{}, ErrAlreadyChecked
	}

	outcome := models.Outcome{
		Owner:         ticket.Owner,
		DrawNumber:    ticket.DrawNumber,
		CommonMatches: numbers.CountShared(ticket.CommonNumbers, winning.CommonNumbers),
		SpecialMatch:  ticket.SpecialNumber == winning.SpecialNumber,
	}

	payout := PayoutFor(outcome.CommonMatches, outcome.SpecialMatch)
	switch {
	case payout.Jackpot:
		outcome.Jackpot = true
		outcome.Payout = pool.Drain()
	case payout.Units > 0:
		hi, amount := bits.Mul64(payout.Units, models.PayoutUnit)
		if hi != 0 {
			return models.Outcome{}, ErrOverflow
		}
		if err := pool.Debit(amount); err != nil {
			return models.Outcome{}, err
		}
		outcome.Payout = amount
	}

	outcome.PoolAfter = pool.TotalPrize
	ticket.IsChecked = true
	return outcome, nil
}
