package domain

import "strings"

type OrderStatus string

const (
	StatusPending       OrderStatus = "PENDING"        // awaiting payment evidence
	StatusPendingReview OrderStatus = "PENDING_REVIEW" // evidence attached, awaiting a reviewer
	StatusCompleted     OrderStatus = "COMPLETED"      // access granted
	StatusCancelled     OrderStatus = "CANCELLED"      // access denied
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:       {StatusPendingReview, StatusCompleted, StatusCancelled},
	StatusPendingReview: {StatusCompleted, StatusCancelled},
}

// ParseOrderStatus accepts any case; ok is false for unknown values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusPendingReview, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Sources lists the states from which s is reachable.
func (s OrderStatus) Sources() []OrderStatus {
	var out []OrderStatus
	for _, from := range []OrderStatus{StatusPending, StatusPendingReview} {
		if from.CanTransitionTo(s) {
			out = append(out, from)
		}
	}
	return out
}

// InitialStatus is COMPLETED for free orders and PENDING otherwise.
func InitialStatus(totalIsZero bool) OrderStatus {
	if totalIsZero {
		return StatusCompleted
	}
	return StatusPending
}
