package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity lo que viaja en el token: quién opera y desde qué caja.
type Identity struct {
	UserID      string
	BranchID    string
	PointOfSale int
	Role        string
}

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Sucursal y punto de venta van en el token para no consultar la DB en cada request.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	BranchID    string `json:"branch_id"`
	PointOfSale int    `json:"pos_number"`
	Role        string `json:"role"` // "admin" | "supervisor" | "cajero"
}

// Generate genera un token JWT firmado con la identidad del cajero.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:      id.UserID,
		BranchID:    id.BranchID,
		PointOfSale: id.PointOfSale,
		Role:        id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return Identity{
		UserID:      claims.UserID,
		BranchID:    claims.BranchID,
		PointOfSale: claims.PointOfSale,
		Role:        claims.Role,
	}, nil
}
