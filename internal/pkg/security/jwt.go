package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("token 无效或已过期")

// TokenParser 校验身份服务签发的 HS256 令牌
type TokenParser struct {
	secret []byte
	issuer string
}

func NewTokenParser(secret, issuer string) *TokenParser {
	return &TokenParser{secret: []byte(secret), issuer: issuer}
}

// GenerateToken 签发令牌，供本地调试与测试使用
func (p *TokenParser) GenerateToken(userID uint64, roles []string, ttl time.Duration) (string, error) {
	claims := &UserClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    p.issuer,
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("签名 Token 失败: %w", err)
	}
	return tokenString, nil
}

// ValidateToken 验证 Token 字符串并解析出 Claims
func (p *TokenParser) ValidateToken(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token 解析失败: %w", err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
