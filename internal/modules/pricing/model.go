// README: Fare rate card and estimate breakdown.
package pricing

import "flashtaxi/internal/types"

const (
	BaseFare      = 50.0
	PerKmRate     = 15.0
	PerMinuteRate = 2.0
)

type RateCard struct {
	BaseFare     float64
	PerKm        float64
	PerMinute    float64
	Currency     string
	CurrencySign string
}

// DefaultRateCard is the flat tariff applied to every ride.
var DefaultRateCard = RateCard{
	BaseFare:     BaseFare,
	PerKm:        PerKmRate,
	PerMinute:    PerMinuteRate,
	Currency:     types.CurrencyINR,
	CurrencySign: "₹",
}

type PricingRequest struct {
	DistanceKm  float64
	DurationMin float64
}

// Breakdown splits a fare into its tariff components.
type Breakdown struct {
	Base     float64 `json:"base"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
}

type PricingResult struct {
	Total     types.Money
	Breakdown Breakdown
}
