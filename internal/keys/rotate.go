package keys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/secrets"
	"github.com/google/uuid"
)

const (
	DefaultBatchSize   = 100
	DefaultLockTimeout = 5 * time.Second
)

var ErrSameKey = errors.New("old and new keys are identical")

// SecretRepos vends the encrypted-column repository bound to a transaction.
type SecretRepos interface {
	Secrets(db dbx.DBTX) secrets.Repository
}

type RotateRequest struct {
	OldKey []byte
	NewKey []byte
	// OwnerID limits rotation to one owner's rows when set.
	OwnerID string
}

type Report struct {
	Rotated        int
	AlreadyRotated int
	Failed         int
	Batches        int
}

type Rotator struct {
	db          dbx.Beginner
	repos       SecretRepos
	targets     []secrets.Target
	batchSize   int
	lockTimeout time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewRotator(db dbx.Beginner, repos SecretRepos, batchSize int, lockTimeout time.Duration, logger logging.Logger) *Rotator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Rotator{
		db:          db,
		repos:       repos,
		targets:     secrets.Targets,
		batchSize:   batchSize,
		lockTimeout: lockTimeout,
		logger:      logger.With("module", "keys"),
		now:         time.Now,
	}
}

// Rotate re-encrypts every stored value from OldKey to NewKey. Each batch
// commits on its own, so an interrupted run can simply be repeated: values
// already under NewKey are counted and left alone. Values that open under
// neither key are logged and skipped. Cancellation is checked between
// batches.
func (r *Rotator) Rotate(ctx context.Context, req RotateRequest) (Report, error) {
	var report Report

	if len(req.OldKey) != cryptox.KeySize || len(req.NewKey) != cryptox.KeySize {
		return report, cryptox.ErrInvalidKey
	}
	if bytes.Equal(req.OldKey, req.NewKey) {
		return report, ErrSameKey
	}

	for _, target := range r.targets {
		afterID := uuid.Nil.String()
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			last, n, err := r.rotateBatch(ctx, req, target, afterID, &report)
			if err != nil {
				return report, fmt.Errorf("rotate %s: %w", target, err)
			}
			if n == 0 {
				break
			}
			report.Batches++
			afterID = last
			if n < r.batchSize {
				break
			}
		}
	}

	r.logger.Info(ctx, "key rotation finished",
		"rotated", report.Rotated,
		"already_rotated", report.AlreadyRotated,
		"failed", report.Failed,
		"batches", report.Batches)

	return report, nil
}

func (r *Rotator) rotateBatch(ctx context.Context, req RotateRequest, target secrets.Target, afterID string, report *Report) (last string, n int, err error) {
	var delta Report

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := dbx.SetLockTimeout(ctx, tx, r.lockTimeout); err != nil {
			return err
		}

		repo := r.repos.Secrets(tx)
		rows, err := repo.LockBatch(ctx, target, req.OwnerID, afterID, r.batchSize)
		if err != nil {
			return err
		}
		n = len(rows)

		for _, row := range rows {
			last = row.ID

			plaintext, err := cryptox.Open(req.OldKey, row.Token)
			if err != nil {
				if !errors.Is(err, cryptox.ErrAuthenticationFailure) {
					return err
				}
				if _, err := cryptox.Open(req.NewKey, row.Token); err == nil {
					delta.AlreadyRotated++
					continue
				}
				delta.Failed++
				attrs := []any{"column", target.String(), "id", row.ID}
				if sealed, err := cryptox.TokenTime(row.Token); err == nil {
					attrs = append(attrs, "sealed_at", sealed.Format(time.RFC3339))
				}
				r.logger.Warn(ctx, "value does not open under either key", attrs...)
				continue
			}

			token, err := cryptox.Seal(req.NewKey, plaintext, r.now())
			if err != nil {
				return err
			}
			if err := repo.Update(ctx, target, row.ID, token); err != nil {
				return err
			}
			delta.Rotated++
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	report.Rotated += delta.Rotated
	report.AlreadyRotated += delta.AlreadyRotated
	report.Failed += delta.Failed
	return last, n, nil
}
