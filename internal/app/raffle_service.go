package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/caiowilker/rifa-project/internal/clock"
	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/sirupsen/logrus"
)

type RaffleRepository interface {
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListSold(ctx context.Context) ([]domain.Ticket, error)
	Get(ctx context.Context, number int) (domain.Ticket, error)
	ReleaseExpired(ctx context.Context, numbers []int, cutoff time.Time) error
}

// RaffleService serves the public ticket listing (repairing stale
// reservations as it reads them), winner lookups, and the draw itself.
type RaffleService struct {
	repo   RaffleRepository
	clock  clock.Clock
	logger *logrus.Logger
	ttl    time.Duration
}

func NewRaffleService(repo RaffleRepository, clk clock.Clock, logger *logrus.Logger, opts ...RaffleOption) *RaffleService {
	svc := &RaffleService{
		repo:   repo,
		clock:  clk,
		logger: logger,
		ttl:    defaultReservationTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type RaffleOption func(*RaffleService)

// WithRaffleTTL aligns the listing's expiry horizon with the reservation TTL.
func WithRaffleTTL(d time.Duration) RaffleOption {
	return func(s *RaffleService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// TicketView is the public state of one number, with expired reservations
// already reported as available.
type TicketView struct {
	Number int
	Status domain.TicketStatus
}

// List returns every number ordered ascending. Reservations past their TTL
// are reported available and corrected in the store best-effort: the
// correction is conditional (it loses to a concurrent sale) and a failed
// correction only logs, since the next reader will retry it.
func (s *RaffleService) List(ctx context.Context) ([]TicketView, error) {
	tickets, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var expired []int
	views := make([]TicketView, len(tickets))
	for i, t := range tickets {
		status := t.Status
		if t.ReservationExpired(now, s.ttl) {
			status = domain.TicketStatusAvailable
			expired = append(expired, t.Number)
		}
		views[i] = TicketView{Number: t.Number, Status: status}
	}

	if len(expired) > 0 {
		if err := s.repo.ReleaseExpired(ctx, expired, now.Add(-s.ttl)); err != nil {
			s.logger.WithError(err).Warn("failed to release expired reservations")
		}
	}

	return views, nil
}

// LookupSold returns holder details for a number only once it is paid.
func (s *RaffleService) LookupSold(ctx context.Context, number int) (domain.Ticket, error) {
	t, err := s.repo.Get(ctx, number)
	if err != nil {
		return domain.Ticket{}, err
	}
	if t.Status != domain.TicketStatusSold {
		return domain.Ticket{}, domain.ErrTicketNotPaid
	}
	return t, nil
}

// Draw picks a winner uniformly at random among sold tickets.
func (s *RaffleService) Draw(ctx context.Context) (domain.Ticket, error) {
	sold, err := s.repo.ListSold(ctx)
	if err != nil {
		return domain.Ticket{}, err
	}
	if len(sold) == 0 {
		return domain.Ticket{}, domain.ErrNoEligibleTickets
	}

	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(sold))))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("draw random index: %w", err)
	}
	return sold[idx.Int64()], nil
}
