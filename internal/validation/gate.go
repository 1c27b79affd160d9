// Package validation rejects commands whose cross-entity preconditions fail on
// the read side. The lookups are eventually consistent, so the gate is a
// best-effort guard; aggregates still enforce their own invariants.
package validation

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/ledger"
)

// Gate checks existence and uniqueness before a command reaches its aggregate.
type Gate struct {
	directory   repository.DirectoryRepository
	redemptions repository.RedemptionRepository
}

// NewGate constructs Gate.
func NewGate(directory repository.DirectoryRepository, redemptions repository.RedemptionRepository) *Gate {
	return &Gate{directory: directory, redemptions: redemptions}
}

// Check returns nil when cmd may be dispatched. It never mutates state.
func (g *Gate) Check(ctx context.Context, cmd model.Command) error {
	switch c := cmd.(type) {
	case model.CreateAccount:
		return g.absent(func() error {
			_, err := g.directory.AccountByEmail(ctx, ledger.NormalizeEmail(c.Email))
			return err
		}, "email %s already belongs to an account", c.Email)
	case model.DeleteAccount:
		return g.present(func() error {
			_, err := g.directory.AccountByID(ctx, c.AccountID)
			return err
		}, "account %s", c.AccountID)
	case model.CreateBusiness:
		return g.absent(func() error {
			_, err := g.directory.BusinessByName(ctx, c.Name)
			return err
		}, "business name %s already taken", c.Name)
	case model.DeleteBusiness:
		return g.present(func() error {
			_, err := g.directory.BusinessByID(ctx, c.BusinessID)
			return err
		}, "business %s", c.BusinessID)
	case model.CreateLoyaltyBank:
		return g.checkEnrollment(ctx, c)
	case model.CreateAuthorizedTransaction:
		return g.absent(func() error {
			_, err := g.redemptions.Get(ctx, c.PaymentID)
			return err
		}, "payment %s already authorized", c.PaymentID)
	case model.CreateVoidTransaction:
		return g.checkRedeemable(ctx, c.PaymentID, c.Points)
	case model.CreateCapturedTransaction:
		return g.checkRedeemable(ctx, c.PaymentID, c.Points)
	}
	return nil
}

func (g *Gate) checkEnrollment(ctx context.Context, c model.CreateLoyaltyBank) error {
	if err := g.present(func() error {
		_, err := g.directory.AccountByID(ctx, c.AccountID)
		return err
	}, "account %s", c.AccountID); err != nil {
		return err
	}
	if err := g.present(func() error {
		_, err := g.directory.BusinessByID(ctx, c.BusinessID)
		return err
	}, "business %s", c.BusinessID); err != nil {
		return err
	}
	return g.absent(func() error {
		_, err := g.directory.LoyaltyBankByOwners(ctx, c.AccountID, c.BusinessID)
		return err
	}, "account %s already enrolled in business %s", c.AccountID, c.BusinessID)
}

func (g *Gate) checkRedeemable(ctx context.Context, paymentID string, points int64) error {
	record, err := g.redemptions.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return fmt.Errorf("payment %s: %w", paymentID, domainErrors.ErrNotFound)
		}
		return err
	}
	if points <= 0 || record.Available() < points {
		return fmt.Errorf("%w: %d points requested, %d available on payment %s",
			domainErrors.ErrIllegalArgument, points, record.Available(), paymentID)
	}
	return nil
}

// present requires lookup to find something.
func (g *Gate) present(lookup func() error, format string, args ...any) error {
	err := lookup()
	if errors.Is(err, domainErrors.ErrNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domainErrors.ErrNotFound)
	}
	return err
}

// absent requires lookup to find nothing.
func (g *Gate) absent(lookup func() error, format string, args ...any) error {
	err := lookup()
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domainErrors.ErrAlreadyExists)
	case errors.Is(err, domainErrors.ErrNotFound):
		return nil
	}
	return err
}
