package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/caiowilker/rifa-project/internal/storage/postgres"
	"github.com/caiowilker/rifa-project/internal/testutil"
)

// stepClock is a clock the test advances by hand.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	return c.now
}

// TestRaffleFlow_Postgres runs the whole sale lifecycle against a real
// database: reserve, collide, expire, re-reserve, confirm late, look up.
func TestRaffleFlow_Postgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	testutil.SeedTickets(t, ctx, pool, 10)

	base := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	clk := &stepClock{now: base}

	repo := postgres.NewTicketRepository(pool)
	reservations := NewReservationService(repo, clk)
	confirmations := NewConfirmationService(repo, clk)
	raffle := NewRaffleService(repo, clk, quietLogger())

	// Ana reserves three numbers.
	ana, err := reservations.Reserve(ctx, ReserveInput{
		HolderName: "Ana", HolderContact: "11 99999-0000", Numbers: []int{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("ana reserve: %v", err)
	}
	if ana.Reference.String() != "1,2,3" || ana.Total != 15 {
		t.Fatalf("unexpected reservation: %+v", ana)
	}
	if !ana.ExpiresAt.Equal(base.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", ana.ExpiresAt)
	}

	// Bea collides on number 3 while the reservation is live. All or
	// nothing: number 4 must stay untouched.
	_, err = reservations.Reserve(ctx, ReserveInput{
		HolderName: "Bea", HolderContact: "11 98888-0000", Numbers: []int{3, 4},
	})
	var conflict *domain.BatchConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Number != 3 || conflict.Conflicts[0].Reason != domain.ConflictReserved {
		t.Fatalf("unexpected conflicts: %+v", conflict.Conflicts)
	}
	if tk, _ := repo.Get(ctx, 4); tk.Status != domain.TicketStatusAvailable {
		t.Fatalf("expected number 4 untouched, got %+v", tk)
	}

	// The TTL elapses. The public listing reports the numbers available
	// again and repairs the rows.
	clk.now = base.Add(16 * time.Minute)
	views, err := raffle.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, v := range views {
		if v.Status != domain.TicketStatusAvailable {
			t.Fatalf("expected everything available after expiry, got %+v", v)
		}
	}
	if tk, _ := repo.Get(ctx, 1); tk.Status != domain.TicketStatusAvailable || tk.HolderName != "" {
		t.Fatalf("expected stale reservation repaired, got %+v", tk)
	}

	// Bea retries and wins the expired number.
	bea, err := reservations.Reserve(ctx, ReserveInput{
		HolderName: "Bea", HolderContact: "11 98888-0000", Numbers: []int{3, 4},
	})
	if err != nil {
		t.Fatalf("bea reserve: %v", err)
	}
	if bea.Reference.String() != "3,4" {
		t.Fatalf("unexpected reference: %q", bea.Reference)
	}

	// Ana's approval arrives after her reservation lapsed. The processor's
	// word is final: every number in the reference goes sold, including
	// number 3 under its current holder.
	res, err := confirmations.Confirm(ctx, ConfirmInput{Reference: "1,2,3", Status: PaymentStatusApproved})
	if err != nil {
		t.Fatalf("confirm ana: %v", err)
	}
	if !res.Confirmed || res.Updated != 3 {
		t.Fatalf("unexpected confirmation: %+v", res)
	}

	winner, err := raffle.LookupSold(ctx, 1)
	if err != nil {
		t.Fatalf("lookup 1: %v", err)
	}
	if winner.HolderName != "Ana" {
		t.Fatalf("unexpected holder: %+v", winner)
	}
	if w3, err := raffle.LookupSold(ctx, 3); err != nil || w3.HolderName != "Bea" {
		t.Fatalf("expected number 3 sold under Bea, got %+v err %v", w3, err)
	}
	if _, err := raffle.LookupSold(ctx, 4); err != domain.ErrTicketNotPaid {
		t.Fatalf("expected ErrTicketNotPaid for 4, got %v", err)
	}

	// Bea's approval lands next. Number 3 is already sold, so only 4 moves.
	res, err = confirmations.Confirm(ctx, ConfirmInput{Reference: "3,4", Status: PaymentStatusApproved})
	if err != nil {
		t.Fatalf("confirm bea: %v", err)
	}
	if res.Updated != 1 {
		t.Fatalf("expected a single new sale, got %+v", res)
	}

	// The draw picks among the four sold numbers.
	drawn, err := raffle.Draw(ctx)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if drawn.Number < 1 || drawn.Number > 4 {
		t.Fatalf("winner outside the sold set: %+v", drawn)
	}
	if drawn.Status != domain.TicketStatusSold {
		t.Fatalf("expected a sold winner, got %+v", drawn)
	}
}
