// README: Rider OTP sign-in and profile management.
package rider

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"flashtaxi/internal/logging"
	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/types"
)

// Mailer delivers a passcode to an email address.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}

// TokenIssuer signs session tokens for a subject and role.
type TokenIssuer interface {
	Issue(subject, role string) (string, error)
}

type Service struct {
	store  Store
	mailer Mailer
	tokens TokenIssuer
	log    *slog.Logger
	ttl    time.Duration
	now    func() time.Time
	newID  func() types.ID
	code   func() (string, error)
}

func NewService(store Store, mailer Mailer, tokens TokenIssuer, log *slog.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		store:  store,
		mailer: mailer,
		tokens: tokens,
		log:    log,
		ttl:    OTPTTL,
		now:    time.Now,
		newID:  types.NewID,
		code:   generateCode,
	}
}

// WithTTL overrides the passcode lifetime. Non-positive values keep the default.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// RequestOTP issues a fresh passcode, creating the rider on first contact.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	r, err := s.findOrCreate(ctx, email)
	if err != nil {
		return err
	}
	code, err := s.code()
	if err != nil {
		return fmt.Errorf("generate passcode: %w", err)
	}
	if err := s.store.SetChallenge(ctx, r.ID, Challenge{Code: code, ExpiresAt: s.now().Add(s.ttl)}); err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, email, code, s.ttl); err != nil {
		return fmt.Errorf("send passcode: %w", err)
	}
	s.log.Info("otp issued", "rider_id", r.ID)
	return nil
}

// VerifyOTP checks the passcode and returns a signed session token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, *Rider, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil, fmt.Errorf("%w: passcode is required", ErrBadRequest)
	}
	r, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrNoChallenge
	}
	if err != nil {
		return "", nil, err
	}
	if r.OTP == nil {
		return "", nil, ErrNoChallenge
	}
	now := s.now()
	if r.OTP.Expired(now) {
		if err := s.store.ClearChallenge(ctx, r.ID); err != nil {
			s.log.Warn("clear expired otp failed", "rider_id", r.ID, "err", err)
		}
		return "", nil, ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(r.OTP.Code), []byte(code)) != 1 {
		return "", nil, ErrInvalidOTP
	}
	if err := s.store.MarkVerified(ctx, r.ID, now); err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(r.ID.String(), RoleRider)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	r.Verified = true
	r.OTP = nil
	r.LastLogin = &now
	s.log.Info("rider signed in", "rider_id", r.ID)
	return token, r, nil
}

func (s *Service) Profile(ctx context.Context, id types.ID) (*Rider, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id types.ID, u ProfileUpdate) (*Rider, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if u.Phone != nil {
		phone := strings.TrimSpace(*u.Phone)
		u.Phone = &phone
	}
	if u.DefaultPaymentMethod != nil {
		m, err := ride.ParsePaymentMethod(*u.DefaultPaymentMethod)
		if err != nil {
			return nil, fmt.Errorf("%w: unsupported payment method", ErrBadRequest)
		}
		v := string(m)
		u.DefaultPaymentMethod = &v
	}
	for _, fav := range u.FavoriteLocations {
		if strings.TrimSpace(fav.Address) == "" || !fav.Location.Valid() {
			return nil, fmt.Errorf("%w: favorite location needs an address and coordinates", ErrBadRequest)
		}
	}
	if err := s.store.UpdateProfile(ctx, id, u); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) findOrCreate(ctx context.Context, email string) (*Rider, error) {
	r, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	r = &Rider{
		ID:          s.newID(),
		Email:       email,
		Preferences: Preferences{DefaultPaymentMethod: string(ride.PaymentCash)},
		CreatedAt:   s.now(),
	}
	err = s.store.Create(ctx, r)
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent first request.
		return s.store.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrBadRequest)
	}
	return email, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
