// README: Driver aggregate (vehicle, rating, availability, last-known location).
package driver

import (
	"errors"
	"time"

	"flashtaxi/internal/types"
)

const DefaultRating = 4.5

var (
	ErrNotFound   = errors.New("driver not found")
	ErrBadRequest = errors.New("bad request")
)

type Vehicle struct {
	Model  string `json:"model" bson:"model"`
	Number string `json:"number" bson:"number"`
	Color  string `json:"color" bson:"color"`
}

type Driver struct {
	ID                types.ID     `json:"id" bson:"_id"`
	Name              string       `json:"name" bson:"name"`
	Email             string       `json:"email" bson:"email"`
	Phone             string       `json:"phone" bson:"phone"`
	Vehicle           Vehicle      `json:"vehicle" bson:"vehicle"`
	Rating            float64      `json:"rating" bson:"rating"`
	TotalRides        int          `json:"totalRides" bson:"totalRides"`
	Available         bool         `json:"isAvailable" bson:"isAvailable"`
	Location          *types.Point `json:"currentLocation,omitempty" bson:"currentLocation,omitempty"`
	LocationUpdatedAt *time.Time   `json:"locationUpdatedAt,omitempty" bson:"locationUpdatedAt,omitempty"`
	DeviceToken       string       `json:"-" bson:"deviceToken,omitempty"`
	CreatedAt         time.Time    `json:"createdAt" bson:"createdAt"`
}

// DemoDrivers is the roster seeded into an empty store for local runs.
func DemoDrivers() []Driver {
	return []Driver{
		{
			ID:      "d0000000000000000000000000000001",
			Name:    "Rajesh Kumar",
			Email:   "rajesh.kumar@flashtaxi.example",
			Phone:   "+91 98100 00001",
			Vehicle: Vehicle{Model: "Swift Dzire", Number: "DL 01 AB 1234", Color: "White"},
			Rating:  4.8,
		},
		{
			ID:      "d0000000000000000000000000000002",
			Name:    "Anita Sharma",
			Email:   "anita.sharma@flashtaxi.example",
			Phone:   "+91 98100 00002",
			Vehicle: Vehicle{Model: "Hyundai Aura", Number: "DL 03 CD 5678", Color: "Silver"},
		},
		{
			ID:      "d0000000000000000000000000000003",
			Name:    "Mohammed Irfan",
			Email:   "m.irfan@flashtaxi.example",
			Phone:   "+91 98100 00003",
			Vehicle: Vehicle{Model: "Toyota Etios", Number: "HR 26 EF 9012", Color: "Grey"},
			Rating:  4.6,
		},
	}
}
