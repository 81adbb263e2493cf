// README: Pricing tests (fare formula and display strings).
package pricing

import "testing"

func TestEstimateFare(t *testing.T) {
	tests := []struct {
		name        string
		distanceKm  float64
		durationMin float64
		want        float64
	}{
		{name: "zero trip is base fare", want: 50},
		{name: "10km 20min", distanceKm: 10, durationMin: 20, want: 240},
		{name: "12.3km 25min", distanceKm: 12.3, durationMin: 25, want: 284.5},
		{name: "fractional minutes", distanceKm: 1.234, durationMin: 3.5, want: 75.51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateFare(tt.distanceKm, tt.durationMin)
			if got != tt.want {
				t.Errorf("EstimateFare(%v, %v) = %v, want %v", tt.distanceKm, tt.durationMin, got, tt.want)
			}
			if again := EstimateFare(tt.distanceKm, tt.durationMin); again != got {
				t.Errorf("EstimateFare not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestService_Quote(t *testing.T) {
	s := NewService(RateCard{})
	m := s.Quote(10, 20)
	if m.Amount != 240 || m.Currency != "INR" {
		t.Fatalf("Quote = %+v, want 240 INR", m)
	}
}

func TestService_EstimateBreakdown(t *testing.T) {
	s := NewService(DefaultRateCard)
	res := s.Estimate(PricingRequest{DistanceKm: 12.3, DurationMin: 25})
	if res.Total.Amount != 284.5 {
		t.Fatalf("total = %v, want 284.5", res.Total.Amount)
	}
	if want := (Breakdown{Base: 50, Distance: 184.5, Time: 50}); res.Breakdown != want {
		t.Fatalf("unexpected breakdown %v", res.Breakdown)
	}
}

func TestService_Display(t *testing.T) {
	s := NewService(DefaultRateCard)
	cases := []struct{ got, want string }{
		{s.Display(284.5), "₹285"},
		{s.Display(240), "₹240"},
		{s.DisplayBase(), "₹50"},
		{s.DisplayPerKm(), "₹15/km"},
		{s.DisplayPerMinute(), "₹2/min"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
