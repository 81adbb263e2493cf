// README: Token verification contract shared by REST and websocket auth.
package infra

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Token holds the verified identity used by downstream middleware.
type Token struct {
	UID    string
	Claims map[string]interface{}
}

// Role returns the "role" claim, or "" when absent.
func (t *Token) Role() string {
	role, _ := t.Claims["role"].(string)
	return role
}

// TokenVerifier verifies a raw bearer token string and returns its identity.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}

// ChainVerifier accepts a token if any of its verifiers does, trying them in order.
type ChainVerifier []TokenVerifier

func (c ChainVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	errs := []error{ErrInvalidToken}
	for _, v := range c {
		if v == nil {
			continue
		}
		tok, err := v.VerifyIDToken(ctx, idToken)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
