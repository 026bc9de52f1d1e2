package auth

import (
	"context"

	"github.com/dgrijalva/jwt-go"

	"github.com/chandab/vansales-backend/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Claims are the JWT claims carried by every issued token.
type Claims struct {
	Role user.Role `json:"role"`
	Name string    `json:"name,omitempty"`
	jwt.StandardClaims
}
