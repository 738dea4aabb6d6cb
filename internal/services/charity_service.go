package services

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"charitylottery/internal/ledger"
	"charitylottery/internal/models"
	"charitylottery/internal/storage"

	"github.com/google/logger"
)

// MaxProjectNameLen bounds project names. Names may not contain "/" since
// they are addressed as a single URL path segment.
const MaxProjectNameLen = 32

// CharityService manages charity projects and the token donations they receive.
type CharityService struct {
	store storage.Store
}

// NewCharityService creates a CharityService over the given store.
func NewCharityService(store storage.Store) *CharityService {
	return &CharityService{store: store}
}

// PublishProject registers a project under its creator.
func (s *CharityService) PublishProject(ctx context.Context, creator, name, description string) (models.CharityProject, error) {
	if creator == "" {
		return models.CharityProject{}, ErrInvalidOwner
	}
	if name == "" || description == "" || len(name) > MaxProjectNameLen || strings.Contains(name, "/") {
		return models.CharityProject{}, ErrInvalidProject
	}

	project := models.CharityProject{Creator: creator, Name: name, Description: description}
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		err := tx.CreateOnce(storage.CharityProjectKey(creator, name), project)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrProjectExists
		}
		return err
	})
	if err != nil {
		return models.CharityProject{}, fmt.Errorf("publish project: %w", err)
	}

	logger.Infof("Charity project %q published by %s", name, creator)
	return project, nil
}

// Project returns a published project.
func (s *CharityService) Project(ctx context.Context, creator, name string) (models.CharityProject, error) {
	var project models.CharityProject
	err := s.store.View(ctx, func(tx storage.Tx) error {
		return getRecord(tx, storage.CharityProjectKey(creator, name), &project, ErrProjectNotFound)
	})
	return project, err
}

// SupportProject transfers amount whole charity tokens from the supporter to
// the project's creator.
func (s *CharityService) SupportProject(ctx context.Context, supporter, creator, name string, amount uint64) (uint64, error) {
	if supporter == "" {
		return 0, ErrInvalidOwner
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	var units uint64
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var project models.CharityProject
		if err := getRecord(tx, storage.CharityProjectKey(creator, name), &project, ErrProjectNotFound); err != nil {
			return err
		}
		var mint models.CharityMint
		if err := getSingleton(tx, storage.CharityMintKey(), &mint); err != nil {
			return err
		}
		hi, lo := bits.Mul64(amount, mint.OneToken())
		if hi != 0 {
			return ErrOverflow
		}
		units = lo
		return ledger.Transfer(tx, storage.TokenBalanceKey(supporter), storage.TokenBalanceKey(project.Creator), units)
	})
	if err != nil {
		return 0, fmt.Errorf("support project: %w", err)
	}

	logger.Infof("%s transferred %d charity token units to project %q", supporter, units, name)
	return units, nil
}
