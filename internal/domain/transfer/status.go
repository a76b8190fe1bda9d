package transfer

// ScanStatus is the per-item confirmation status on one side of the workflow
type ScanStatus string

const (
	ScanPending     ScanStatus = "PENDING"
	ScanReceived    ScanStatus = "RECEIVED"
	ScanNotReceived ScanStatus = "NOT_RECEIVED"
)

// IsValid checks if the status is a known ScanStatus
func (s ScanStatus) IsValid() bool {
	switch s {
	case ScanPending, ScanReceived, ScanNotReceived:
		return true
	}
	return false
}

// String returns the string representation of ScanStatus
func (s ScanStatus) String() string {
	return string(s)
}

// Status is the transfer-level state derived from per-item scan statuses
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusInTransitPartial  Status = "IN_TRANSIT_PARTIAL"
	StatusInTransitComplete Status = "IN_TRANSIT_COMPLETE"
	StatusIncomplete        Status = "INCOMPLETE"
	StatusCompleted         Status = "COMPLETED"
	StatusFailed            Status = "FAILED"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInTransitPartial, StatusInTransitComplete,
		StatusIncomplete, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminalish returns true for states that gate deletion to the root
// administrator: the courier has confirmed every item, or the destination
// store has.
func (s Status) IsTerminalish() bool {
	return s == StatusInTransitComplete || s == StatusCompleted
}

// statusCounts holds per-side tallies of item scan statuses
type statusCounts struct {
	pending  int
	received int
	rejected int
}

func countSide(items []TransferItem, side Side) statusCounts {
	var c statusCounts
	for i := range items {
		switch items[i].Scan(side).Status {
		case ScanReceived:
			c.received++
		case ScanNotReceived:
			c.rejected++
		default:
			c.pending++
		}
	}
	return c
}

// DeriveStatus recomputes the aggregate status as a pure function of the
// current item list. Both blocks run unconditionally and in order, so once
// store scanning begins its outcome overrides the courier-side one. The
// function is total over every partition of the item count and idempotent:
// re-deriving on unchanged items always yields the same status.
func DeriveStatus(items []TransferItem) Status {
	status := StatusPending
	total := len(items)
	if total == 0 {
		return status
	}

	courier := countSide(items, SideCourier)
	if courier.pending == 0 {
		switch {
		case courier.received == total:
			status = StatusInTransitComplete
		case courier.received > 0:
			status = StatusInTransitPartial
		case courier.rejected == total:
			status = StatusFailed
		}
	}

	store := countSide(items, SideStore)
	if store.pending == 0 {
		switch {
		case store.received == total:
			status = StatusCompleted
		case store.received > 0:
			status = StatusIncomplete
		case store.rejected == total:
			status = StatusFailed
		}
	}

	return status
}
