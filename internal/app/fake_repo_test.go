package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/caiowilker/rifa-project/internal/domain"
)

// fakeTicketRepo mirrors the semantics of the Postgres repository in memory,
// including the conditional guards of MarkSoldBatch and ReleaseExpired.
type fakeTicketRepo struct {
	tickets map[int]domain.Ticket

	reserveErr   error
	markSoldErr  error
	releaseErr   error
	listErr      error
	releaseCalls [][]int
}

func newFakeTicketRepo(tickets ...domain.Ticket) *fakeTicketRepo {
	m := make(map[int]domain.Ticket, len(tickets))
	for _, t := range tickets {
		m[t.Number] = t
	}
	return &fakeTicketRepo{tickets: m}
}

func (f *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTicketRepo) GetBatchForUpdate(_ context.Context, numbers []int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, n := range numbers {
		if t, ok := f.tickets[n]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeTicketRepo) ReserveBatch(_ context.Context, numbers []int, name, contact string, reservedAt time.Time) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	for _, n := range numbers {
		t, ok := f.tickets[n]
		if !ok {
			return errors.New("reserve of unknown number")
		}
		at := reservedAt
		t.Status = domain.TicketStatusReserved
		t.HolderName = name
		t.HolderContact = contact
		t.ReservedAt = &at
		t.ConfirmedAt = nil
		f.tickets[n] = t
	}
	return nil
}

func (f *fakeTicketRepo) MarkSoldBatch(_ context.Context, numbers []int, confirmedAt time.Time) (int64, error) {
	if f.markSoldErr != nil {
		return 0, f.markSoldErr
	}
	var updated int64
	for _, n := range numbers {
		t, ok := f.tickets[n]
		if !ok || t.Status == domain.TicketStatusSold {
			continue
		}
		at := confirmedAt
		t.Status = domain.TicketStatusSold
		t.ConfirmedAt = &at
		f.tickets[n] = t
		updated++
	}
	return updated, nil
}

func (f *fakeTicketRepo) ReleaseExpired(_ context.Context, numbers []int, cutoff time.Time) error {
	f.releaseCalls = append(f.releaseCalls, append([]int{}, numbers...))
	if f.releaseErr != nil {
		return f.releaseErr
	}
	for _, n := range numbers {
		t, ok := f.tickets[n]
		if !ok || t.Status != domain.TicketStatusReserved {
			continue
		}
		if t.ReservedAt == nil || !t.ReservedAt.Before(cutoff) {
			continue
		}
		t.Status = domain.TicketStatusAvailable
		t.HolderName = ""
		t.HolderContact = ""
		t.ReservedAt = nil
		f.tickets[n] = t
	}
	return nil
}

func (f *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeTicketRepo) ListSold(_ context.Context) ([]domain.Ticket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.TicketStatusSold {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeTicketRepo) Get(_ context.Context, number int) (domain.Ticket, error) {
	t, ok := f.tickets[number]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, nil
}
