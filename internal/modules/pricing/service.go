// README: Pricing service computes fare estimates.
package pricing

import (
	"fmt"
	"math"

	"flashtaxi/internal/types"
)

// EstimateFare applies the default tariff: base + per-km + per-minute, rounded to two decimals.
// No surge, floor or cap is applied.
func EstimateFare(distanceKm, durationMin float64) float64 {
	return DefaultRateCard.fare(distanceKm, durationMin)
}

func (r RateCard) fare(distanceKm, durationMin float64) float64 {
	return types.Round2(r.BaseFare + distanceKm*r.PerKm + durationMin*r.PerMinute)
}

type Service struct {
	rates RateCard
}

func NewService(rates RateCard) *Service {
	if rates.Currency == "" {
		rates = DefaultRateCard
	}
	return &Service{rates: rates}
}

// Quote returns the fare for a routed trip in the card's currency.
func (s *Service) Quote(distanceKm, durationMin float64) types.Money {
	return types.Money{Amount: s.rates.fare(distanceKm, durationMin), Currency: s.rates.Currency}
}

func (s *Service) Estimate(req PricingRequest) PricingResult {
	return PricingResult{
		Total: s.Quote(req.DistanceKm, req.DurationMin),
		Breakdown: Breakdown{
			Base:     s.rates.BaseFare,
			Distance: types.Round2(req.DistanceKm * s.rates.PerKm),
			Time:     types.Round2(req.DurationMin * s.rates.PerMinute),
		},
	}
}

// Display renders an amount as a whole-unit price tag, e.g. "₹285".
func (s *Service) Display(amount float64) string {
	return fmt.Sprintf("%s%d", s.rates.CurrencySign, int64(math.Round(amount)))
}

func (s *Service) DisplayBase() string {
	return s.Display(s.rates.BaseFare)
}

func (s *Service) DisplayPerKm() string {
	return s.Display(s.rates.PerKm) + "/km"
}

func (s *Service) DisplayPerMinute() string {
	return s.Display(s.rates.PerMinute) + "/min"
}
