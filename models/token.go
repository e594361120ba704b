package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, kimlik servisinin imzaladığı JWT'nin payload'ı.
//
// İki biçim kabul edilir:
//
//	{"user": {"id": "...", "name": "...", "village": "..."}, "exp": ...}
//	{"id": "...", "name": "...", "exp": ...}
//
// Hangisi gelirse gelsin Identity() aynı sonucu üretir.
type TokenClaims struct {
	User    *TokenUser `json:"user,omitempty"`
	UserID  string     `json:"id,omitempty"`
	Name    string     `json:"name,omitempty"`
	Village string     `json:"village,omitempty"`
	jwt.RegisteredClaims
}

// TokenUser, iç içe "user" nesnesi.
type TokenUser struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Village string `json:"village,omitempty"`
}

// Identity, claims'ten çağıran kullanıcıyı çıkarır.
// İç içe user nesnesi düz alanlara göre önceliklidir.
func (c *TokenClaims) Identity() Identity {
	id := Identity{UserID: c.UserID, Name: c.Name, Village: c.Village}
	if c.User != nil {
		if c.User.ID != "" {
			id.UserID = c.User.ID
		}
		if c.User.Name != "" {
			id.Name = c.User.Name
		}
		if c.User.Village != "" {
			id.Village = c.User.Village
		}
	}
	return id
}
