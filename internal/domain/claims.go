package domain

import "github.com/golang-jwt/jwt/v5"

// Claims são as informações carregadas no token de acesso
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
