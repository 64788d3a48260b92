package store

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"kabraji/internal/domain"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrPersistence       = errors.New("persistence failure")
)

// Gateway loads and saves the whole shop state in one unit.
type Gateway interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}

// Digest returns a hex blake2b-256 fingerprint of an encoded snapshot.
func Digest(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
