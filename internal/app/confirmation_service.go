package app

import (
	"context"
	"time"

	"github.com/caiowilker/rifa-project/internal/clock"
	"github.com/caiowilker/rifa-project/internal/domain"
)

// PaymentStatusApproved is the only processor outcome that converts a
// reservation into a sale; every other status is acknowledged and ignored.
const PaymentStatusApproved = "approved"

type ConfirmationRepository interface {
	MarkSoldBatch(ctx context.Context, numbers []int, confirmedAt time.Time) (int64, error)
}

// ConfirmationService consumes payment outcomes delivered at-least-once by
// the processor's webhook. It trusts the processor's approval as
// authoritative for whichever numbers the reference names.
type ConfirmationService struct {
	repo  ConfirmationRepository
	clock clock.Clock
}

func NewConfirmationService(repo ConfirmationRepository, clk clock.Clock) *ConfirmationService {
	return &ConfirmationService{
		repo:  repo,
		clock: clk,
	}
}

type ConfirmInput struct {
	Reference string
	Status    string
}

type ConfirmResult struct {
	Confirmed bool
	Numbers   []int
	// Updated counts tickets that actually transitioned to sold; a
	// redelivered notification reports zero.
	Updated int64
}

// Confirm resolves the reference back to its ticket numbers and, for an
// approved payment, marks them sold. The mark is a single conditional batch
// write: already-sold rows keep their original confirmed_at and unknown
// numbers are skipped, so redelivery of the same event is a safe no-op.
func (s *ConfirmationService) Confirm(ctx context.Context, in ConfirmInput) (ConfirmResult, error) {
	ref, err := domain.ParseReference(in.Reference)
	if err != nil {
		return ConfirmResult{}, err
	}
	numbers := ref.Numbers()

	if in.Status != PaymentStatusApproved {
		return ConfirmResult{Confirmed: false, Numbers: numbers}, nil
	}

	updated, err := s.repo.MarkSoldBatch(ctx, numbers, s.clock.Now())
	if err != nil {
		return ConfirmResult{}, err
	}
	return ConfirmResult{Confirmed: true, Numbers: numbers, Updated: updated}, nil
}
