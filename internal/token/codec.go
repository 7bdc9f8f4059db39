package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"metabarcoding-web/internal/model"
)

// Claims is the verified content of a session token: who it was issued to
// and when it stops being valid.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies self-contained session tokens with a symmetric
// secret. The signing algorithm is fixed at construction; tokens signed with
// any other method are rejected as having an invalid signature.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

func NewCodec(secret string, algorithm string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}

	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &Codec{secret: []byte(secret), method: method}, nil
}

// Issue produces a signed token asserting subject until now + ttl.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of a token and returns its
// claims. Failures are normalized to the model sentinel errors so callers
// can distinguish a tampered token from an expired or unparseable one.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, model.ErrTokenExpired
		default:
			return Claims{}, model.ErrTokenSignatureInvalid
		}
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, model.ErrTokenMalformed
	}

	claims := Claims{}
	claims.Subject, _ = claimsMap["sub"].(string)
	if exp, expErr := claimsMap.GetExpirationTime(); expErr == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, iatErr := claimsMap.GetIssuedAt(); iatErr == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	return claims, nil
}

// ExpiryUnverified recovers the embedded expiry without checking the
// signature. It exists solely for revocation bookkeeping: the blacklist
// wants the expiry even of tampered tokens so they can be remembered for
// exactly as long as they claim to live. Never use it to resolve identity.
func (c *Codec) ExpiryUnverified(tokenString string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, model.ErrTokenMalformed
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, model.ErrTokenMalformed
	}

	return exp.Time, nil
}
