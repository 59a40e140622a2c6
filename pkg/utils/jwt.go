package utils

import (
	"errors"
	"time"

	"blog_cms/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "blog-cms"

// TokenUser 写入会话令牌的用户最小投影
type TokenUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Slug     string `json:"slug"`
	Role     string `json:"role"`
}

// Claims 自定义JWT Claims
type Claims struct {
	TokenUser
	jwt.RegisteredClaims
}

// ActivationClaims 账号激活令牌，注册时签发，携带已哈希的密码
type ActivationClaims struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	jwt.RegisteredClaims
}

// ResetClaims 重置密码令牌
type ResetClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.GlobalConfig.JWT.Secret)
}

func sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

func registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// SessionTTL 会话有效期
func SessionTTL() time.Duration {
	return time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
}

func activationTTL() time.Duration {
	return time.Duration(config.GlobalConfig.JWT.ActivationExpire) * time.Minute
}

// GenerateToken 生成会话 JWT Token
func GenerateToken(user TokenUser) (string, *time.Time, error) {
	claims := Claims{
		TokenUser:        user,
		RegisteredClaims: registered(user.UserID, SessionTTL()),
	}
	token, err := sign(claims)
	if err != nil {
		return "", nil, err
	}
	expireAt := claims.ExpiresAt.Time
	return token, &expireAt, nil
}

// ParseToken 验证会话 JWT Token
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateActivationToken 生成账号激活令牌
func GenerateActivationToken(username, email, passwordHash string) (string, error) {
	return sign(ActivationClaims{
		Username:         username,
		Email:            email,
		PasswordHash:     passwordHash,
		RegisteredClaims: registered(email, activationTTL()),
	})
}

// ParseActivationToken 验证账号激活令牌
func ParseActivationToken(tokenString string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.PasswordHash == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateResetToken 生成重置密码令牌
func GenerateResetToken(userID, username string) (string, error) {
	return sign(ResetClaims{
		UserID:           userID,
		Username:         username,
		RegisteredClaims: registered(userID, activationTTL()),
	})
}

// ParseResetToken 验证重置密码令牌
func ParseResetToken(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret(), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
