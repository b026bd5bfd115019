package orderstate

import (
	"errors"
	"slices"
	"testing"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"pgregory.net/rapid"
)

type edge struct {
	from, to models.OrderStatus
}

var legalEdges = map[edge]bool{}

func init() {
	for _, e := range []edge{
		{models.OrderStatusPending, models.OrderStatusAccepted},
		{models.OrderStatusPending, models.OrderStatusCanceled},
		{models.OrderStatusAccepted, models.OrderStatusCooking},
		{models.OrderStatusAccepted, models.OrderStatusCanceled},
		{models.OrderStatusCooking, models.OrderStatusReady},
		{models.OrderStatusCooking, models.OrderStatusCanceled},
		{models.OrderStatusReady, models.OrderStatusSent},
		{models.OrderStatusReady, models.OrderStatusDelivered},
		{models.OrderStatusReady, models.OrderStatusCanceled},
		{models.OrderStatusSent, models.OrderStatusDelivered},
		{models.OrderStatusSent, models.OrderStatusCanceled},
	} {
		legalEdges[e] = true
	}
}

func TestCheckTransition_AllPairs(t *testing.T) {
	for _, from := range models.OrderStatuses() {
		for _, to := range models.OrderStatuses() {
			err := CheckTransition(from, to)
			want := legalEdges[edge{from, to}]

			if want && err != nil {
				t.Errorf("%s -> %s: unexpected error %v", from, to, err)
			}
			if !want && err == nil {
				t.Errorf("%s -> %s: expected rejection", from, to)
			}
		}
	}
}

func TestCheckTransition_ReadyToCooking(t *testing.T) {
	err := CheckTransition(models.OrderStatusReady, models.OrderStatusCooking)

	var illegal *IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected *IllegalTransitionError, got %v", err)
	}

	want := []models.OrderStatus{models.OrderStatusSent, models.OrderStatusDelivered, models.OrderStatusCanceled}
	if !slices.Equal(illegal.Legal, want) {
		t.Errorf("legal = %v, want %v", illegal.Legal, want)
	}
	if illegal.Current != models.OrderStatusReady || illegal.Requested != models.OrderStatusCooking {
		t.Errorf("unexpected error fields: %+v", illegal)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCanceled} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
		if next := LegalNext(s); len(next) != 0 {
			t.Errorf("%s has outgoing transitions %v", s, next)
		}
	}
}

func TestLegalNext_ReturnsCopy(t *testing.T) {
	next := LegalNext(models.OrderStatusPending)
	next[0] = models.OrderStatusDelivered

	if err := CheckTransition(models.OrderStatusPending, models.OrderStatusAccepted); err != nil {
		t.Fatalf("transition table was mutated through LegalNext: %v", err)
	}
}

func TestInitialStatus(t *testing.T) {
	tests := []struct {
		orderType models.OrderType
		want      models.OrderStatus
	}{
		{models.OrderTypeLocal, models.OrderStatusAccepted},
		{models.OrderTypeDelivery, models.OrderStatusPending},
		{models.OrderTypeTakeAway, models.OrderStatusPending},
	}

	for _, tt := range tests {
		if got := InitialStatus(tt.orderType); got != tt.want {
			t.Errorf("InitialStatus(%s) = %s, want %s", tt.orderType, got, tt.want)
		}
	}
}

func TestCheckTransition_Properties(t *testing.T) {
	statuses := models.OrderStatuses()

	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(statuses).Draw(t, "from")
		to := rapid.SampledFrom(statuses).Draw(t, "to")

		err := CheckTransition(from, to)

		if from == to && err == nil {
			t.Fatalf("self transition %s accepted", from)
		}
		if IsTerminal(from) && err == nil {
			t.Fatalf("terminal status %s accepted a transition to %s", from, to)
		}
		if (err == nil) != slices.Contains(LegalNext(from), to) {
			t.Fatalf("CheckTransition(%s, %s) disagrees with LegalNext", from, to)
		}

		var illegal *IllegalTransitionError
		if err != nil && !errors.As(err, &illegal) {
			t.Fatalf("rejection is not an IllegalTransitionError: %v", err)
		}
	})
}
