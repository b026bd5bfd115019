// Package orderstate decides which order status changes are legal.
//
// The machine keeps no state of its own: every check is evaluated against the
// status currently stored on the order.
package orderstate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
)

// transitions is the full adjacency list. Statuses missing from the map, and
// those mapped to nothing, are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusAccepted, models.OrderStatusCanceled},
	models.OrderStatusAccepted:  {models.OrderStatusCooking, models.OrderStatusCanceled},
	models.OrderStatusCooking:   {models.OrderStatusReady, models.OrderStatusCanceled},
	models.OrderStatusReady:     {models.OrderStatusSent, models.OrderStatusDelivered, models.OrderStatusCanceled},
	models.OrderStatusSent:      {models.OrderStatusDelivered, models.OrderStatusCanceled},
	models.OrderStatusDelivered: {},
	models.OrderStatusCanceled:  {},
}

// IllegalTransitionError is returned when requested is not reachable from current.
type IllegalTransitionError struct {
	Current   models.OrderStatus
	Requested models.OrderStatus
	Legal     []models.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	if len(e.Legal) == 0 {
		return fmt.Sprintf("illegal transition %s -> %s: %s is terminal", e.Current, e.Requested, e.Current)
	}
	legal := make([]string, len(e.Legal))
	for i, s := range e.Legal {
		legal[i] = string(s)
	}
	return fmt.Sprintf("illegal transition %s -> %s: allowed next statuses are %s",
		e.Current, e.Requested, strings.Join(legal, ", "))
}

// LegalNext returns the statuses reachable from current in one step.
func LegalNext(current models.OrderStatus) []models.OrderStatus {
	return slices.Clone(transitions[current])
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// CheckTransition returns nil when current -> requested is an edge of the
// graph. current == requested is never an edge.
func CheckTransition(current, requested models.OrderStatus) error {
	legal := transitions[current]
	if slices.Contains(legal, requested) {
		return nil
	}
	return &IllegalTransitionError{
		Current:   current,
		Requested: requested,
		Legal:     slices.Clone(legal),
	}
}

// InitialStatus is the status an order of the given type is created with.
// Local orders skip the pending step.
func InitialStatus(t models.OrderType) models.OrderStatus {
	if t == models.OrderTypeLocal {
		return models.OrderStatusAccepted
	}
	return models.OrderStatusPending
}
