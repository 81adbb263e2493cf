// README: Rider sign-in by email passcode and profile endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flashtaxi/internal/http/middleware"
	"flashtaxi/internal/modules/rider"
)

type AuthHandler struct {
	riders *rider.Service
}

func NewAuthHandler(svc *rider.Service) *AuthHandler {
	return &AuthHandler{riders: svc}
}

type sendOTPReq struct {
	Email string `json:"email"`
}

type verifyOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type preferencesReq struct {
	DefaultPaymentMethod *string                  `json:"defaultPaymentMethod"`
	FavoriteLocations    []rider.FavoriteLocation `json:"favoriteLocations"`
}

type profileReq struct {
	Name        *string         `json:"name"`
	Phone       *string         `json:"phone"`
	Preferences *preferencesReq `json:"preferences"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPReq
	if !bindJSON(c, &req, false) {
		return
	}
	if err := h.riders.RequestOTP(c.Request.Context(), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPReq
	if !bindJSON(c, &req, false) {
		return
	}
	token, r, err := h.riders.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": r})
}

func (h *AuthHandler) Me(c *gin.Context) {
	r, err := h.riders.Profile(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"user": r})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileReq
	if !bindJSON(c, &req, false) {
		return
	}
	u := rider.ProfileUpdate{Name: req.Name, Phone: req.Phone}
	if req.Preferences != nil {
		u.DefaultPaymentMethod = req.Preferences.DefaultPaymentMethod
		u.FavoriteLocations = req.Preferences.FavoriteLocations
	}
	r, err := h.riders.UpdateProfile(c.Request.Context(), callerID(c), u)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"message": "Profile updated", "user": r})
}

func callerUID(c *gin.Context) string {
	return middleware.CallerUID(c)
}
