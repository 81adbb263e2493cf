// README: Rider account, one-time passcode challenge and preferences.
package rider

import (
	"errors"
	"time"

	"flashtaxi/internal/types"
)

const (
	OTPLength = 6
	OTPTTL    = 5 * time.Minute
	RoleRider = "rider"
)

var (
	ErrNotFound    = errors.New("rider not found")
	ErrDuplicate   = errors.New("rider already exists")
	ErrBadRequest  = errors.New("bad request")
	ErrNoChallenge = errors.New("no passcode requested for this email")
	ErrOTPExpired  = errors.New("passcode expired")
	ErrInvalidOTP  = errors.New("invalid passcode")
)

// Challenge is the single active passcode for a rider.
type Challenge struct {
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

type FavoriteLocation struct {
	Name     string      `json:"name" bson:"name"`
	Address  string      `json:"address" bson:"address"`
	Location types.Point `json:"coordinates" bson:"coordinates"`
}

type Preferences struct {
	DefaultPaymentMethod string             `json:"defaultPaymentMethod" bson:"defaultPaymentMethod"`
	FavoriteLocations    []FavoriteLocation `json:"favoriteLocations" bson:"favoriteLocations"`
}

type Rider struct {
	ID          types.ID    `json:"id" bson:"_id"`
	Email       string      `json:"email" bson:"email"`
	Name        string      `json:"name,omitempty" bson:"name,omitempty"`
	Phone       string      `json:"phone,omitempty" bson:"phone,omitempty"`
	Verified    bool        `json:"isVerified" bson:"isVerified"`
	OTP         *Challenge  `json:"-" bson:"otp,omitempty"`
	Preferences Preferences `json:"preferences" bson:"preferences"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
}

// ProfileUpdate carries optional profile changes; nil fields are left alone.
type ProfileUpdate struct {
	Name                 *string
	Phone                *string
	DefaultPaymentMethod *string
	FavoriteLocations    []FavoriteLocation
}
