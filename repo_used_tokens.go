package accounts

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// UsedTokens is the append-only ledger of consumed reset tokens. The
// insert-if-absent is the sole arbiter of the consume race: whichever
// transaction inserts first wins, everyone else sees false.
type UsedTokens interface {
	InsertIfAbsent(ctx context.Context, token string, usedAt time.Time) (bool, error)
	InsertIfAbsentTx(ctx context.Context, tx bun.IDB, token string, usedAt time.Time) (bool, error)
	Exists(ctx context.Context, token string) (bool, error)
	ExistsTx(ctx context.Context, tx bun.IDB, token string) (bool, error)
}

type usedTokensRepo struct {
	db *bun.DB
}

var _ UsedTokens = (*usedTokensRepo)(nil)

// NewUsedTokensRepository builds the Bun-backed replay ledger.
func NewUsedTokensRepository(db *bun.DB) UsedTokens {
	return &usedTokensRepo{db: db}
}

func (u *usedTokensRepo) InsertIfAbsent(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	return u.InsertIfAbsentTx(ctx, u.db, token, usedAt)
}

func (u *usedTokensRepo) InsertIfAbsentTx(ctx context.Context, tx bun.IDB, token string, usedAt time.Time) (bool, error) {
	record := &UsedResetToken{
		Token:  token,
		UsedAt: usedAt,
	}

	res, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (u *usedTokensRepo) Exists(ctx context.Context, token string) (bool, error) {
	return u.ExistsTx(ctx, u.db, token)
}

func (u *usedTokensRepo) ExistsTx(ctx context.Context, tx bun.IDB, token string) (bool, error) {
	return tx.NewSelect().
		Model((*UsedResetToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
}
