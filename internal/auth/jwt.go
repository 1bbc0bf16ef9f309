package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService emite y valida los tokens de la API HTTP.
type JWTService struct {
	secretKey string
}

// NewJWTService crea un JWTService con la clave dada.
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{secretKey: secretKey}
}

// GenerateToken emite un token HS256 con el UID y 24 horas de vida.
func (s *JWTService) GenerateToken(uid string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": uid,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ExtractUserID valida el token y devuelve el UID que transporta.
func (s *JWTService) ExtractUserID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("método de firma inesperado")
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("token inválido o caducado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims inválidas")
	}
	uid, _ := claims["user_id"].(string)
	if uid == "" {
		return "", errors.New("token sin usuario")
	}
	return uid, nil
}
