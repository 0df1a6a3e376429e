// Package jwt emite y valida access tokens EdDSA (Ed25519).
package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer firma access tokens con la clave del KeySet.
type Issuer struct {
	Iss       string        // "iss"
	Keys      *KeySet       // clave de firma
	AccessTTL time.Duration // TTL del access token (ej: 15m)
}

func NewIssuer(iss string, ks *KeySet, accessTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Issuer{Iss: iss, Keys: ks, AccessTTL: accessTTL}
}

// Keyfunc devuelve un jwt.Keyfunc para validar tokens emitidos por este issuer.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		return i.Keys.Pub, nil
	}
}

// IssueAccess emite un Access Token con claims estándar + std (flat).
// El "jti" generado se devuelve para poder revocarlo en logout.
func (i *Issuer) IssueAccess(sub string, std map[string]any) (token, jti string, exp time.Time, err error) {
	now := time.Now().UTC()
	exp = now.Add(i.AccessTTL)
	jti = uuid.NewString()

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": sub,
		"jti": jti,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	for k, v := range std {
		claims[k] = v
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	token, err = tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, exp, nil
}
