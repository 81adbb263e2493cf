// README: Support chat replies and the monthly assistant quota.
package support

import "errors"

type Source string

const (
	SourceCanned    Source = "canned"
	SourceAssistant Source = "assistant"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	// ErrInsufficientTokens is returned when a rider has no assistant tokens left this month.
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

// DefaultTokens is the number of assistant replies granted per month.
const DefaultTokens = 100

const maxMessageLength = 1000

type Reply struct {
	Text   string `json:"reply"`
	Source Source `json:"source"`
}
