// README: Ride aggregate and status definitions.
package ride

import (
	"fmt"
	"strings"
	"time"

	"flashtaxi/internal/types"
)

type Status string

const (
	StatusNone          Status = "none"
	StatusRequesting    Status = "requesting"
	StatusAccepted      Status = "accepted"
	StatusDriverArrived Status = "driver_arrived"
	StatusStarted       Status = "started"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusRequesting:    {StatusAccepted, StatusCancelled},
	StatusAccepted:      {StatusDriverArrived, StatusCancelled},
	StatusDriverArrived: {StatusStarted},
	StatusStarted:       {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
)

// ParsePaymentMethod defaults to cash when v is blank.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	switch pm := PaymentMethod(strings.ToLower(strings.TrimSpace(v))); pm {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentWallet:
		return pm, nil
	default:
		return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, v)
	}
}

type Location struct {
	Address string      `json:"address" bson:"address"`
	Point   types.Point `json:"coordinates" bson:"coordinates"`
}

type Ride struct {
	ID            types.ID      `bson:"_id"`
	RiderID       types.ID      `bson:"riderId"`
	DriverID      *types.ID     `bson:"driverId,omitempty"`
	Pickup        Location      `bson:"pickup"`
	Dropoff       Location      `bson:"dropoff"`
	Status        Status        `bson:"status"`
	StatusVersion int           `bson:"statusVersion"`
	Fare          types.Money   `bson:"fare"`
	DistanceKm    float64       `bson:"distanceKm"`
	DurationMin   float64       `bson:"durationMin"`
	PaymentMethod PaymentMethod `bson:"paymentMethod"`
	RequestedAt   time.Time     `bson:"requestedAt"`
	AcceptedAt    *time.Time    `bson:"acceptedAt,omitempty"`
	ArrivedAt     *time.Time    `bson:"arrivedAt,omitempty"`
	StartedAt     *time.Time    `bson:"startedAt,omitempty"`
	CompletedAt   *time.Time    `bson:"completedAt,omitempty"`
	CancelledAt   *time.Time    `bson:"cancelledAt,omitempty"`
	CancelReason  string        `bson:"cancelReason,omitempty"`
}

// Transition is one guarded status change. It applies only while the stored
// ride still has status From at StatusVersion Version.
type Transition struct {
	RideID   types.ID
	From     Status
	To       Status
	Version  int
	DriverID *types.ID
	Reason   string
	At       time.Time
}

// timestampField names the write-once timestamp stamped on entering a status.
func timestampField(to Status) string {
	switch to {
	case StatusAccepted:
		return "acceptedAt"
	case StatusDriverArrived:
		return "arrivedAt"
	case StatusStarted:
		return "startedAt"
	case StatusCompleted:
		return "completedAt"
	case StatusCancelled:
		return "cancelledAt"
	default:
		return ""
	}
}

// apply mutates r as if t had been stored. Timestamps already set are kept.
func (r *Ride) apply(t Transition) {
	r.Status = t.To
	r.StatusVersion++
	if t.DriverID != nil {
		d := *t.DriverID
		r.DriverID = &d
	}
	if t.Reason != "" {
		r.CancelReason = t.Reason
	}
	at := t.At
	var slot **time.Time
	switch timestampField(t.To) {
	case "acceptedAt":
		slot = &r.AcceptedAt
	case "arrivedAt":
		slot = &r.ArrivedAt
	case "startedAt":
		slot = &r.StartedAt
	case "completedAt":
		slot = &r.CompletedAt
	case "cancelledAt":
		slot = &r.CancelledAt
	}
	if slot != nil && *slot == nil {
		*slot = &at
	}
}

// Event is one row of the transition audit log.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}
