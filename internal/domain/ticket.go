package domain

import "time"

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusSold      TicketStatus = "sold"
)

// Ticket is one raffle number. Numbers are provisioned once for the whole
// range and never deleted; only their status and holder data change.
type Ticket struct {
	Number        int
	Status        TicketStatus
	HolderName    string
	HolderContact string
	ReservedAt    *time.Time
	ConfirmedAt   *time.Time
}

// ReservationExpired reports whether a reserved ticket has outlived its TTL.
// A reservation made at T blocks the number for the interval (T, T+ttl]; at
// any instant after T+ttl the number is reservable again.
func (t Ticket) ReservationExpired(now time.Time, ttl time.Duration) bool {
	if t.Status != TicketStatusReserved || t.ReservedAt == nil {
		return false
	}
	return now.After(t.ReservedAt.Add(ttl))
}
