package booking

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
	StatusRefunded   Status = "REFUNDED"
	StatusNoShow     Status = "NO_SHOW"
)

// Blocking statuses hold their date range against new reservations.
func (s Status) Blocking() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// OccupiesRange is Blocking plus CHECKED_OUT: an early departure does not free the nights already sold.
func (s Status) OccupiesRange() bool {
	return s.Blocking() || s == StatusCheckedOut
}

// Canceled reports the terminal cancellation states.
func (s Status) Canceled() bool {
	return s == StatusCanceled || s == StatusRefunded
}
