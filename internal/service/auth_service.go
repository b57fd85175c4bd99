package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studiofit/gymgrid-api/internal/models"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
)

// AuthService validates bearer tokens issued by the identity collaborator.
// Credential and session flows live outside this service.
type AuthService struct {
	secret []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
