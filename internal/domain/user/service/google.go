package service

import (
	"context"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity Google ID token 中的用户信息
type GoogleIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
}

// TokenVerifier 校验第三方登录令牌
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type googleVerifier struct {
	clientID string
}

// NewGoogleVerifier 按配置的 client id 校验 Google ID token
func NewGoogleVerifier(clientID string) TokenVerifier {
	return &googleVerifier{clientID: clientID}
}

func (g *googleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, err
	}

	identity := &GoogleIdentity{}
	if v, ok := payload.Claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := payload.Claims["email_verified"].(bool); ok {
		identity.EmailVerified = v
	}
	if v, ok := payload.Claims["name"].(string); ok {
		identity.Name = v
	}
	return identity, nil
}
