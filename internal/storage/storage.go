// Package storage persists lottery records in buckets of JSON values. Every
// public lottery operation runs inside a single Update so it either commits
// all of its writes or none of them.
package storage

import (
	"context"
	"errors"
	"fmt"
)

const (
	DrawRecorderBucket   = "draw_number"
	WinningNumbersBucket = "winning_numbers"
	TicketBucket         = "lottery_ticket"
	PrizePoolBucket      = "prize_pool"
	CharityMintBucket    = "charity_mint"
	CharityProjectBucket = "charity_project"
	BalanceBucket        = "balance"
	TokenBalanceBucket   = "token_balance"
)

// Buckets lists every bucket a store must provide.
var Buckets = []string{
	DrawRecorderBucket,
	WinningNumbersBucket,
	TicketBucket,
	PrizePoolBucket,
	CharityMintBucket,
	CharityProjectBucket,
	BalanceBucket,
	TokenBalanceBucket,
}

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrUnknownBucket = errors.New("unknown bucket")
)

// Key addresses one record.
type Key struct {
	Bucket string
	ID     string
}

func (k Key) String() string {
	return k.Bucket + "/" + k.ID
}

func DrawRecorderKey() Key {
	return Key{Bucket: DrawRecorderBucket, ID: "recorder"}
}

func PrizePoolKey() Key {
	return Key{Bucket: PrizePoolBucket, ID: "pool"}
}

func CharityMintKey() Key {
	return Key{Bucket: CharityMintBucket, ID: "mint"}
}

// WinningNumbersKey is zero padded so bolt iterates draws in order.
func WinningNumbersKey(drawNumber uint64) Key {
	return Key{Bucket: WinningNumbersBucket, ID: fmt.Sprintf("%020d", drawNumber)}
}

func TicketKey(owner string, drawNumber uint64) Key {
	return Key{Bucket: TicketBucket, ID: fmt.Sprintf("%s/%020d", owner, drawNumber)}
}

// CharityProjectKey length-prefixes the creator so no (creator, name) pair
// can collide with another one whose parts contain "/".
func CharityProjectKey(creator, name string) Key {
	return Key{Bucket: CharityProjectBucket, ID: fmt.Sprintf("%d:%s/%s", len(creator), creator, name)}
}

func BalanceKey(account string) Key {
	return Key{Bucket: BalanceBucket, ID: account}
}

func TokenBalanceKey(account string) Key {
	return Key{Bucket: TokenBalanceBucket, ID: account}
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	// Get decodes the record at key into out, or returns ErrNotFound.
	Get(key Key, out interface{}) error
	// Put writes the record, replacing any previous value.
	Put(key Key, value interface{}) error
	// CreateOnce writes the record only if the key is empty, otherwise ErrAlreadyExists.
	CreateOnce(key Key, value interface{}) error
}

// Store runs transactions. Update transactions are serialised.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
	Type() string
}
