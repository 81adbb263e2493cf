// README: Support chat orchestration: assistant when allowed, canned otherwise.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"flashtaxi/internal/logging"
)

type Service struct {
	assistant Assistant
	quota     Quota
	log       *slog.Logger
}

// NewService answers only with canned replies when assistant is nil.
func NewService(assistant Assistant, quota Quota, log *slog.Logger) *Service {
	if quota == nil {
		quota = NewMemoryQuota()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{assistant: assistant, quota: quota, log: log}
}

func (s *Service) Reply(ctx context.Context, riderID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("%w: message is required", ErrInvalidMessage)
	}
	if len(message) > maxMessageLength {
		return Reply{}, fmt.Errorf("%w: at most %d characters", ErrInvalidMessage, maxMessageLength)
	}
	canned := Reply{Text: Canned(message), Source: SourceCanned}
	if s.assistant == nil {
		return canned, nil
	}

	if err := s.quota.UseToken(ctx, riderID); err != nil {
		if !errors.Is(err, ErrInsufficientTokens) {
			s.log.Warn("support quota check failed", "rider_id", riderID, "err", err)
		}
		return canned, nil
	}
	text, err := s.assistant.Ask(ctx, message)
	if err != nil {
		s.log.Warn("support assistant failed", "rider_id", riderID, "err", err)
		return canned, nil
	}
	return Reply{Text: text, Source: SourceAssistant}, nil
}
