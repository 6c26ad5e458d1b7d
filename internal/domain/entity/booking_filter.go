package entity

// BookingFilter is a domain-level filter for listing bookings.
// Used by repository layer to avoid coupling with delivery DTOs.
type BookingFilter struct {
	Status   BookingStatus
	FromDate string // Format: YYYY-MM-DD
	ToDate   string // Format: YYYY-MM-DD
}

// StatusTransition identifies one (from, to) pair applied by a status sweep.
type StatusTransition struct {
	From BookingStatus `json:"from"`
	To   BookingStatus `json:"to"`
}

func (t StatusTransition) String() string {
	return string(t.From) + "->" + string(t.To)
}
