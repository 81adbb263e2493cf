// README: Response projections derived from the canonical Ride.
package ride

import (
	"fmt"
	"math"
	"time"

	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/pricing"
	"flashtaxi/internal/types"
)

// ETABufferMinutes is added to the routed duration for the pickup ETA.
const ETABufferMinutes = 5

type DriverCard struct {
	ID      types.ID       `json:"id"`
	Name    string         `json:"name"`
	Phone   string         `json:"phone,omitempty"`
	Vehicle driver.Vehicle `json:"vehicle"`
	Rating  float64        `json:"rating"`
}

func newDriverCard(d *driver.Driver, withPhone bool) *DriverCard {
	c := &DriverCard{ID: d.ID, Name: d.Name, Vehicle: d.Vehicle, Rating: d.Rating}
	if withPhone {
		c.Phone = d.Phone
	}
	return c
}

// Created is returned by a successful ride request.
type Created struct {
	ID       types.ID    `json:"id"`
	Pickup   Location    `json:"pickup"`
	Dropoff  Location    `json:"dropoff"`
	Fare     types.Money `json:"fare"`
	Distance string      `json:"distance"`
	Duration string      `json:"duration"`
	ETA      int         `json:"eta"`
	Status   Status      `json:"status"`
}

func NewCreated(r *Ride) Created {
	return Created{
		ID:       r.ID,
		Pickup:   r.Pickup,
		Dropoff:  r.Dropoff,
		Fare:     r.Fare,
		Distance: formatDistance(r.DistanceKm),
		Duration: formatDuration(r.DurationMin),
		ETA:      etaMinutes(r.DurationMin),
		Status:   r.Status,
	}
}

type Detail struct {
	ID            types.ID      `json:"id"`
	Status        Status        `json:"status"`
	Pickup        Location      `json:"pickup"`
	Dropoff       Location      `json:"dropoff"`
	Fare          types.Money   `json:"fare"`
	DistanceKm    float64       `json:"distanceKm"`
	DurationMin   float64       `json:"durationMin"`
	Distance      string        `json:"distance"`
	Duration      string        `json:"duration"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Driver        *DriverCard   `json:"driver"`
	RequestedAt   time.Time     `json:"requestedAt"`
	AcceptedAt    *time.Time    `json:"acceptedAt"`
	ArrivedAt     *time.Time    `json:"arrivedAt"`
	StartedAt     *time.Time    `json:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt"`
	CancelledAt   *time.Time    `json:"cancelledAt"`
	CancelReason  string        `json:"cancelReason,omitempty"`
}

func newDetail(r *Ride, card *DriverCard) *Detail {
	return &Detail{
		ID:            r.ID,
		Status:        r.Status,
		Pickup:        r.Pickup,
		Dropoff:       r.Dropoff,
		Fare:          r.Fare,
		DistanceKm:    r.DistanceKm,
		DurationMin:   r.DurationMin,
		Distance:      formatDistance(r.DistanceKm),
		Duration:      formatDuration(r.DurationMin),
		PaymentMethod: r.PaymentMethod,
		Driver:        card,
		RequestedAt:   r.RequestedAt,
		AcceptedAt:    r.AcceptedAt,
		ArrivedAt:     r.ArrivedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CancelledAt:   r.CancelledAt,
		CancelReason:  r.CancelReason,
	}
}

// Summary is one history row.
type Summary struct {
	ID      types.ID    `json:"id"`
	Status  Status      `json:"status"`
	Pickup  string      `json:"pickup"`
	Dropoff string      `json:"dropoff"`
	Fare    types.Money `json:"fare"`
	Date    time.Time   `json:"date"`
	Driver  *DriverCard `json:"driver"`
}

func newSummary(r *Ride, card *DriverCard) Summary {
	return Summary{
		ID:      r.ID,
		Status:  r.Status,
		Pickup:  r.Pickup.Address,
		Dropoff: r.Dropoff.Address,
		Fare:    r.Fare,
		Date:    r.RequestedAt,
		Driver:  card,
	}
}

// Estimate is the display-ready fare preview.
type Estimate struct {
	Distance   string  `json:"distance"`
	Duration   string  `json:"duration"`
	Fare       string  `json:"fare"`
	BaseFare   string  `json:"baseFare"`
	PerKmRate  string  `json:"perKmRate"`
	PerMinRate string  `json:"perMinRate"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`

	Breakdown pricing.Breakdown `json:"breakdown"`
}

func newEstimate(t *Trip, p Pricing) *Estimate {
	return &Estimate{
		Distance:   formatDistance(t.Route.DistanceKm),
		Duration:   formatDuration(t.Route.DurationMin),
		Fare:       p.Display(t.Fare.Amount),
		BaseFare:   p.DisplayBase(),
		PerKmRate:  p.DisplayPerKm(),
		PerMinRate: p.DisplayPerMinute(),
		Amount:     t.Fare.Amount,
		Currency:   t.Fare.Currency,
		Breakdown:  t.Breakdown,
	}
}

type newRideRequest struct {
	RideID  types.ID    `json:"rideId"`
	Pickup  Location    `json:"pickup"`
	Dropoff Location    `json:"dropoff"`
	Fare    types.Money `json:"fare"`
}

type rideRef struct {
	RideID types.ID `json:"rideId"`
	Status Status   `json:"status,omitempty"`
}

type rideAccepted struct {
	RideID types.ID    `json:"rideId"`
	Driver *DriverCard `json:"driver,omitempty"`
}

func formatDistance(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

func formatDuration(min float64) string {
	return fmt.Sprintf("%d mins", int(math.Round(min)))
}

func etaMinutes(durationMin float64) int {
	return int(math.Round(durationMin + ETABufferMinutes))
}
