package domain

import "time"

// JobStatus enumerates lifecycle states shared by orders and bookings.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusAccepted  JobStatus = "ACCEPTED"
	JobStatusOnTheWay  JobStatus = "ON_THE_WAY"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusRejected  JobStatus = "REJECTED"
	JobStatusCanceled  JobStatus = "CANCELED"
)

// Order is a live, on-demand repair request dispatched to mobile repairmen.
type Order struct {
	ID          string
	RequesterID string
	RepairmanID *string
	Address     string
	Lat         float64
	Lng         float64
	VehicleType string
	Complaint   string
	Status      JobStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	RejectedAt  *time.Time
	CanceledAt  *time.Time
	CompletedAt *time.Time
}

// InvolvesUser reports whether the given user is a party to this order.
func (o *Order) InvolvesUser(userID string) bool {
	if o.RequesterID == userID {
		return true
	}
	return o.RepairmanID != nil && *o.RepairmanID == userID
}

var allowedTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:   {JobStatusAccepted, JobStatusRejected, JobStatusCanceled},
	JobStatusAccepted:  {JobStatusOnTheWay, JobStatusCompleted, JobStatusCanceled},
	JobStatusOnTheWay:  {JobStatusCompleted, JobStatusCanceled},
	JobStatusCompleted: {},
	JobStatusRejected:  {},
	JobStatusCanceled:  {},
}

// CanTransition reports whether a status is allowed to move to the next one.
func CanTransition(current, next JobStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}
