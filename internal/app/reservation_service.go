package app

import (
	"context"
	"strings"
	"time"

	"github.com/caiowilker/rifa-project/internal/clock"
	"github.com/caiowilker/rifa-project/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBatchForUpdate(ctx context.Context, numbers []int) ([]domain.Ticket, error)
	ReserveBatch(ctx context.Context, numbers []int, name, contact string, reservedAt time.Time) error
}

// ReservationService decides whether a batch of numbers can be reserved and
// writes the reservation. The eligibility check and the write run inside one
// repository transaction over row locks, so two overlapping batches can
// never both succeed for the same number.
type ReservationService struct {
	repo      ReservationRepository
	clock     clock.Clock
	ttl       time.Duration
	unitPrice int64
}

const (
	defaultReservationTTL = 15 * time.Minute
	defaultUnitPrice      = 5
)

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		clock:     clk,
		ttl:       defaultReservationTTL,
		unitPrice: defaultUnitPrice,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationOption func(*ReservationService)

// WithReservationTTL overrides how long a reservation blocks its numbers.
func WithReservationTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithUnitPrice overrides the price of a single number.
func WithUnitPrice(p int64) ReservationOption {
	return func(s *ReservationService) {
		if p > 0 {
			s.unitPrice = p
		}
	}
}

type ReserveInput struct {
	HolderName    string
	HolderContact string
	Numbers       []int
}

// Reservation is the successful outcome of Reserve: the (deduplicated)
// batch, the amount due, the reference the payment processor must echo back,
// and when the reservation lapses without confirmation.
type Reservation struct {
	Numbers   []int
	Total     int64
	Reference domain.Reference
	ExpiresAt time.Time
}

// Reserve applies the per-number state machine to the whole batch:
// available and expired-reserved numbers are eligible, sold and
// still-reserved numbers are conflicts, unknown numbers reject the request.
// Any failure leaves every ticket untouched.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (Reservation, error) {
	if strings.TrimSpace(in.HolderName) == "" {
		return Reservation{}, domain.ErrHolderNameRequired
	}
	if strings.TrimSpace(in.HolderContact) == "" {
		return Reservation{}, domain.ErrHolderContactRequired
	}

	ref, err := domain.NewReference(in.Numbers)
	if err != nil {
		return Reservation{}, err
	}
	numbers := ref.Numbers()

	now := s.clock.Now()

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		tickets, err := s.repo.GetBatchForUpdate(txCtx, numbers)
		if err != nil {
			return err
		}

		byNumber := make(map[int]domain.Ticket, len(tickets))
		for _, t := range tickets {
			byNumber[t.Number] = t
		}

		var unknown []int
		var conflicts []domain.NumberConflict
		for _, n := range numbers {
			t, ok := byNumber[n]
			if !ok {
				unknown = append(unknown, n)
				continue
			}
			switch {
			case t.Status == domain.TicketStatusSold:
				conflicts = append(conflicts, domain.NumberConflict{Number: n, Reason: domain.ConflictSold})
			case t.Status == domain.TicketStatusReserved && !t.ReservationExpired(now, s.ttl):
				conflicts = append(conflicts, domain.NumberConflict{Number: n, Reason: domain.ConflictReserved})
			}
		}
		if len(unknown) > 0 {
			return &domain.UnknownNumbersError{Numbers: unknown}
		}
		if len(conflicts) > 0 {
			return &domain.BatchConflictError{Conflicts: conflicts}
		}

		// Expired reservations in the batch are corrected by this same
		// write: the new holder and timestamp replace the stale ones.
		return s.repo.ReserveBatch(txCtx, numbers, in.HolderName, in.HolderContact, now)
	})
	if err != nil {
		return Reservation{}, err
	}

	return Reservation{
		Numbers:   numbers,
		Total:     int64(len(numbers)) * s.unitPrice,
		Reference: ref,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}
