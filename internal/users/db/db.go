package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) userBy(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where(column+" = ?", value).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetByID(ctx context.Context, id string) (*models.User, error) {
	return d.userBy(ctx, "id", id)
}

func (d *DB) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return d.userBy(ctx, "username", username)
}

func (d *DB) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.userBy(ctx, "email", email)
}

func (d *DB) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return d.userBy(ctx, "referral_code", code)
}

// CreateUserWithGrants inserts a new user and, when the signup carried a
// valid referral, the referrer's point grant and the new user's welcome
// discount, all in one transaction.
func (d *DB) CreateUserWithGrants(ctx context.Context, user models.User, grant *models.UserPoint, welcome *models.UserDiscount) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return err
		}
		if grant != nil {
			if _, err := tx.NewInsert().Model(grant).Exec(ctx); err != nil {
				return err
			}
		}
		if welcome != nil {
			if _, err := tx.NewInsert().Model(welcome).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateLoginState records failed-attempt bookkeeping after a login.
func (d *DB) UpdateLoginState(ctx context.Context, id string, attempts int, suspended bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("attempts = ?", attempts).
		Set("suspended = ?", suspended).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
