package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"charitylottery/internal/epoch"
	"charitylottery/internal/ledger"
	"charitylottery/internal/models"
	"charitylottery/internal/numbers"
	"charitylottery/internal/seed"
	"charitylottery/internal/storage"

	"github.com/google/logger"
)

const (
	// DefaultGuide receives the referral fee when a buyer names no guide.
	DefaultGuide = "treasury"
	// MintVault receives the fee that backs each minted charity token.
	MintVault = "charity_mint"
)

// LotteryService runs the draw lifecycle, ticket sales and settlement. All
// state lives in the store; each exported method is one store transaction.
type LotteryService struct {
	store        storage.Store
	seeds        seed.Source
	clock        epoch.Clock
	epochSlack   uint64
	defaultGuide string
}

// Option customises a LotteryService.
type Option func(*LotteryService)

// WithEpochSlack sets how many time units early a draw may advance. A slack
// of 0, the default, requires a new time unit since the last advance; a slack
// of 1 gives the now+1 > epoch gate, which lets the draw advance again within
// the same time unit.
func WithEpochSlack(slack uint64) Option {
	return func(s *LotteryService) {
		s.epochSlack = slack
	}
}

// WithDefaultGuide sets the account paid the guide fee when a purchase names none.
func WithDefaultGuide(guide string) Option {
	return func(s *LotteryService) {
		if guide != "" {
			s.defaultGuide = guide
		}
	}
}

// NewLotteryService creates a LotteryService over the given store.
func NewLotteryService(store storage.Store, seeds seed.Source, clock epoch.Clock, opts ...Option) *LotteryService {
	s := &LotteryService{
		store:        store,
		seeds:        seeds,
		clock:        clock,
		defaultGuide: DefaultGuide,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeDrawRecorder creates the draw recorder at draw 0.
func (s *LotteryService) InitializeDrawRecorder(ctx context.Context) (models.DrawRecorder, error) {
	recorder := models.DrawRecorder{DrawNumber: 0, Epoch: s.clock.CurrentTimeUnit()}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		return createOnce(tx, storage.DrawRecorderKey(), recorder)
	})
	if err != nil {
		return models.DrawRecorder{}, fmt.Errorf("initialize draw recorder: %w", err)
	}

	logger.Infof("Draw number recorder created, draw %d, epoch %d", recorder.DrawNumber, recorder.Epoch)
	metricDraw(recorder)
	return recorder, nil
}

// InitializePrizePool creates the empty prize pool.
func (s *LotteryService) InitializePrizePool(ctx context.Context) (models.PrizePool, error) {
	pool := models.PrizePool{TotalPrize: 0}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		return createOnce(tx, storage.PrizePoolKey(), pool)
	})
	if err != nil {
		return models.PrizePool{}, fmt.Errorf("initialize prize pool: %w", err)
	}

	logger.Infof("Prize pool created, total prize %d", pool.TotalPrize)
	return pool, nil
}

// InitializeCharityMint creates the charity token mint with no supply.
func (s *LotteryService) InitializeCharityMint(ctx context.Context) (models.CharityMint, error) {
	mint := models.CharityMint{Decimals: models.CharityDecimals}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		return createOnce(tx, storage.CharityMintKey(), mint)
	})
	if err != nil {
		return models.CharityMint{}, fmt.Errorf("initialize charity mint: %w", err)
	}

	logger.Infof("Charity mint created, %d decimals", mint.Decimals)
	return mint, nil
}

// Bootstrap creates every singleton that does not exist yet.
func (s *LotteryService) Bootstrap(ctx context.Context) error {
	if _, err := s.InitializeDrawRecorder(ctx); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
		return err
	}
	if _, err := s.InitializePrizePool(ctx); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
		return err
	}
	if _, err := s.InitializeCharityMint(ctx); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
		return err
	}

	return s.store.View(ctx, func(tx storage.Tx) error {
		var recorder models.DrawRecorder
		if err := getSingleton(tx, storage.DrawRecorderKey(), &recorder); err != nil {
			return err
		}
		var pool models.PrizePool
		if err := getSingleton(tx, storage.PrizePoolKey(), &pool); err != nil {
			return err
		}
		metricDraw(recorder)
		metricPool(pool)
		return nil
	})
}

// AdvanceDraw starts the next draw if the epoch gate allows it.
func (s *LotteryService) AdvanceDraw(ctx context.Context) (models.DrawRecorder, error) {
	var recorder models.DrawRecorder
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		if err := getSingleton(tx, storage.DrawRecorderKey(), &recorder); err != nil {
			return err
		}

		now := s.clock.CurrentTimeUnit()
		if !epochGatePassed(now, recorder.Epoch, s.epochSlack) {
			return ErrNotTimeYet
		}
		if recorder.DrawNumber == math.MaxUint64 {
			return ErrOverflow
		}
		recorder.Epoch = now
		recorder.DrawNumber++
		return tx.Put(storage.DrawRecorderKey(), recorder)
	})
	if err != nil {
		return models.DrawRecorder{}, fmt.Errorf("advance draw: %w", err)
	}

	logger.Infof("The new draw is %d in epoch %d", recorder.DrawNumber, recorder.Epoch)
	metricDraw(recorder)
	return recorder, nil
}

// DrawWinningNumbers derives the winning numbers of the current draw from a
// fresh seed. Each draw gets its numbers exactly once.
func (s *LotteryService) DrawWinningNumbers(ctx context.Context) (models.WinningNumbers, error) {
	sample, err := s.seeds.Seed(ctx)
	if err != nil {
		return models.WinningNumbers{}, fmt.Errorf("draw winning numbers: %w", err)
	}

	var winning models.WinningNumbers
	err = s.store.Update(ctx, func(tx storage.Tx) error {
		var recorder models.DrawRecorder
		if err := getSingleton(tx, storage.DrawRecorderKey(), &recorder); err != nil {
			return err
		}
		if recorder.DrawNumber == 0 {
			return ErrDrawNotStarted
		}

		common, special := numbers.Derive(sample)
		winning = models.WinningNumbers{
			DrawNumber:    recorder.DrawNumber,
			CommonNumbers: common,
			SpecialNumber: special,
		}
		err := tx.CreateOnce(storage.WinningNumbersKey(recorder.DrawNumber), winning)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrAlreadyDrawn
		}
		return err
	})
	if err != nil {
		return models.WinningNumbers{}, fmt.Errorf("draw winning numbers: %w", err)
	}

	logger.Infof("Seed for draw %d: %x", winning.DrawNumber, sample)
	logger.Infof("Winning numbers of draw %d: common %v, special %d",
		winning.DrawNumber, winning.CommonNumbers, winning.SpecialNumber)
	return winning, nil
}

// BuyRequest is a ticket purchase.
type BuyRequest struct {
	Owner         string
	Guide         string
	CommonNumbers [models.CommonNumberCount]uint8
	SpecialNumber uint8
}

// ValidateCombination checks a buyer's chosen numbers.
func ValidateCombination(common [models.CommonNumberCount]uint8, special uint8) error {
	if !numbers.CommonInRange(common) {
		return ErrInvalidCommonNumber1
	}
	if numbers.HasDuplicates(common) {
		return ErrInvalidCommonNumber2
	}
	if !numbers.SpecialInRange(special) {
		return ErrInvalidSpecialNumber
	}
	return nil
}

// BuyTicket records a ticket for the current draw. The purchase funds the
// prize pool, pays the guide and the mint vault, and mints one charity token
// to the buyer.
func (s *LotteryService) BuyTicket(ctx context.Context, req BuyRequest) (models.Ticket, error) {
	if req.Owner == "" {
		return models.Ticket{}, ErrInvalidOwner
	}
	if err := ValidateCombination(req.CommonNumbers, req.SpecialNumber); err != nil {
		return models.Ticket{}, err
	}
	guide := req.Guide
	if guide == "" {
		guide = s.defaultGuide
	}

	var (
		ticket models.Ticket
		pool   models.PrizePool
	)
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var recorder models.DrawRecorder
		if err := getSingleton(tx, storage.DrawRecorderKey(), &recorder); err != nil {
			return err
		}

		ticket = models.Ticket{
			Owner:         req.Owner,
			DrawNumber:    recorder.DrawNumber,
			CommonNumbers: req.CommonNumbers,
			SpecialNumber: req.SpecialNumber,
			IsChecked:     false,
		}
		err := tx.CreateOnce(storage.TicketKey(req.Owner, recorder.DrawNumber), ticket)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrTicketExists
		}
		if err != nil {
			return err
		}

		if err := getSingleton(tx, storage.PrizePoolKey(), &pool); err != nil {
			return err
		}
		if err := pool.Credit(models.TicketContribution); err != nil {
			return err
		}
		if err := tx.Put(storage.PrizePoolKey(), pool); err != nil {
			return err
		}

		if err := ledger.Pay(tx, guide, models.GuideFee); err != nil {
			return err
		}
		if err := ledger.Pay(tx, MintVault, models.MintFee); err != nil {
			return err
		}
		return mintCharityToken(tx, req.Owner)
	})
	if err != nil {
		return models.Ticket{}, fmt.Errorf("buy ticket: %w", err)
	}

	logger.Infof("%s bought a ticket for draw %d: common %v, special %d",
		ticket.Owner, ticket.DrawNumber, ticket.CommonNumbers, ticket.SpecialNumber)
	metricTicketSold(pool)
	return ticket, nil
}

func mintCharityToken(tx storage.Tx, to string) error {
	var mint models.CharityMint
	if err := getSingleton(tx, storage.CharityMintKey(), &mint); err != nil {
		return err
	}
	one := mint.OneToken()
	if mint.Supply > math.MaxUint64-one {
		return ErrOverflow
	}
	mint.Supply += one
	if err := tx.Put(storage.CharityMintKey(), mint); err != nil {
		return err
	}
	return ledger.Credit(tx, storage.TokenBalanceKey(to), one)
}

// CheckTicket settles the owner's ticket for drawNumber against that draw's
// winning numbers and pays the prize, if any, to the owner.
func (s *LotteryService) CheckTicket(ctx context.Context, owner string, drawNumber uint64) (models.Outcome, error) {
	if owner == "" {
		return models.Outcome{}, ErrInvalidOwner
	}

	var outcome models.Outcome
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var ticket models.Ticket
		if err := getRecord(tx, storage.TicketKey(owner, drawNumber), &ticket, ErrTicketNotFound); err != nil {
			return err
		}
		var winning models.WinningNumbers
		if err := getRecord(tx, storage.WinningNumbersKey(drawNumber), &winning, ErrNumbersNotDrawn); err != nil {
			return err
		}
		var pool models.PrizePool
		if err := getSingleton(tx, storage.PrizePoolKey(), &pool); err != nil {
			return err
		}

		var err error
		outcome, err = Settle(&ticket, winning, &pool)
		if err != nil {
			return err
		}

		if outcome.Won() {
			if err := tx.Put(storage.PrizePoolKey(), pool); err != nil {
				return err
			}
			if err := ledger.Pay(tx, owner, outcome.Payout); err != nil {
				return err
			}
		}
		return tx.Put(storage.TicketKey(owner, drawNumber), ticket)
	})
	if err != nil {
		return models.Outcome{}, fmt.Errorf("check ticket: %w", err)
	}

	switch {
	case outcome.Jackpot:
		logger.Infof("%s won the full prize pool of draw %d: %d", owner, drawNumber, outcome.Payout)
	case outcome.Payout > 0:
		logger.Infof("%s won %d in draw %d", owner, outcome.Payout, drawNumber)
	default:
		logger.Infof("%s did not win in draw %d", owner, drawNumber)
	}
	metricSettlement(outcome)
	return outcome, nil
}

// DrawRecorder returns the current draw and epoch.
func (s *LotteryService) DrawRecorder(ctx context.Context) (models.DrawRecorder, error) {
	var recorder models.DrawRecorder
	err := s.store.View(ctx, func(tx storage.Tx) error {
		return getSingleton(tx, storage.DrawRecorderKey(), &recorder)
	})
	return recorder, err
}

// WinningNumbers returns the numbers drawn for drawNumber.
func (s *LotteryService) WinningNumbers(ctx context.Context, drawNumber uint64) (models.WinningNumbers, error) {
	var winning models.WinningNumbers
	err := s.store.View(ctx, func(tx storage.Tx) error {
		return getRecord(tx, storage.WinningNumbersKey(drawNumber), &winning, ErrNumbersNotDrawn)
	})
	return winning, err
}

// Ticket returns the owner's ticket for drawNumber.
func (s *LotteryService) Ticket(ctx context.Context, owner string, drawNumber uint64) (models.Ticket, error) {
	var ticket models.Ticket
	err := s.store.View(ctx, func(tx storage.Tx) error {
		return getRecord(tx, storage.TicketKey(owner, drawNumber), &ticket, ErrTicketNotFound)
	})
	return ticket, err
}

// PrizePool returns the current pool balance.
func (s *LotteryService) PrizePool(ctx context.Context) (models.PrizePool, error) {
	var pool models.PrizePool
	err := s.store.View(ctx, func(tx storage.Tx) error {
		return getSingleton(tx, storage.PrizePoolKey(), &pool)
	})
	return pool, err
}

// Balance returns an account's payment-currency balance.
func (s *LotteryService) Balance(ctx context.Context, account string) (uint64, error) {
	var bal uint64
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		bal, err = ledger.Balance(tx, storage.BalanceKey(account))
		return err
	})
	return bal, err
}

// TokenBalance returns an account's charity-token balance in base units.
func (s *LotteryService) TokenBalance(ctx context.Context, account string) (uint64, error) {
	var bal uint64
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		bal, err = ledger.Balance(tx, storage.TokenBalanceKey(account))
		return err
	})
	return bal, err
}

// epochGatePassed reports now + slack > last without overflowing.
func epochGatePassed(now, last, slack uint64) bool {
	return now > last || last-now < slack
}

func createOnce(tx storage.Tx, key storage.Key, value interface{}) error {
	err := tx.CreateOnce(key, value)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return ErrAlreadyInitialized
	}
	return err
}

func getSingleton(tx storage.Tx, key storage.Key, out interface{}) error {
	return getRecord(tx, key, out, fmt.Errorf("%w: missing %s", ErrNotInitialized, key.Bucket))
}

func getRecord(tx storage.Tx, key storage.Key, out interface{}, notFound error) error {
	err := tx.Get(key, out)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound
	}
	return err
}
