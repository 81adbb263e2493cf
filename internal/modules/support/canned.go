// README: Keyword-matched canned support replies.
package support

import (
	"fmt"
	"strings"

	"flashtaxi/internal/modules/pricing"
)

type cannedRule struct {
	keywords []string
	reply    string
}

var cannedRules = []cannedRule{
	{
		keywords: []string{"ride", "book"},
		reply:    "To book a ride, open the home screen and tap 'Book a Ride'. You'll need to enter your pickup and dropoff locations.",
	},
	{
		keywords: []string{"price", "fare", "cost"},
		reply: fmt.Sprintf("Our fares are calculated from distance and time. Base fare starts at ₹%d, with ₹%d per km and ₹%d per minute.",
			int(pricing.BaseFare), int(pricing.PerKmRate), int(pricing.PerMinuteRate)),
	},
	{
		keywords: []string{"cancel"},
		reply:    "You can cancel your ride from the tracking screen. Cancellation fees may apply after a driver is assigned.",
	},
	{
		keywords: []string{"payment", "pay"},
		reply:    "We accept cash, credit/debit cards and digital wallets. You can set your preferred payment method in Profile settings.",
	},
}

const defaultReply = "Thank you for contacting support. A representative will assist you shortly. For urgent issues, please call our 24/7 helpline."

// Canned returns the first rule matching message, or the default reply.
func Canned(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range cannedRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply
			}
		}
	}
	return defaultReply
}
