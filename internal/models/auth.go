package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles recognised by the API gateway.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleFrontDesk  UserRole = "FRONT_DESK"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are issued by
// the identity collaborator; this service only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	UnitID   string   `json:"unit_id"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
