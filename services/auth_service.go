// Package services, iş mantığı katmanı.
//
// Handler'lar (HTTP) ve ws callback'leri ile repository'ler arasında oturur:
// doğrulama, sahiplik kontrolü, "önce kaydet sonra yayınla" sırası ve oda
// yayınları burada yaşar. Service'ler http.Request bilmez, SQL çalıştırmaz;
// yayın için yalnızca ws.EventPublisher interface'ini görür.
package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// AuthService, dış kimlik servisinin imzaladığı token'ları doğrular.
// Kullanıcı kaydı ve token üretimi bu sunucunun işi değildir.
type AuthService interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	jwtSecret []byte
}

func NewAuthService(jwtSecret string) AuthService {
	return &authService{jwtSecret: []byte(jwtSecret)}
}

// ValidateAccessToken, HMAC imzalı JWT'yi doğrular; exp varsa süresi kontrol edilir.
// Kimlik (id) taşımayan token geçersizdir.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	if claims.Identity().UserID == "" {
		return nil, fmt.Errorf("%w: token has no user id", pkg.ErrUnauthorized)
	}

	return claims, nil
}
