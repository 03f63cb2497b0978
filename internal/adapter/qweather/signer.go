package qweather

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// Token validity window. iat is backdated to absorb clock skew.
const (
	issuedAtSkew  = 30 * time.Second
	tokenLifetime = 1800 * time.Second
)

// Signer mints short-lived EdDSA bearer tokens for the QWeather API.
type Signer struct {
	keyID   string
	subject string
	key     ed25519.PrivateKey
	clock   clockwork.Clock
}

// NewSigner loads the Ed25519 private key at keyPath. keyID is the credential
// id placed in the token header; subject is the project id.
func NewSigner(keyID, subject, keyPath string, clock clockwork.Clock) (*Signer, error) {
	switch {
	case keyID == "":
		return nil, fmt.Errorf("%w: QWEATHER_CREDENTIAL_ID is required", domain.ErrConfiguration)
	case subject == "":
		return nil, fmt.Errorf("%w: QWEATHER_PROJECT_ID is required", domain.ErrConfiguration)
	case keyPath == "":
		return nil, fmt.Errorf("%w: QWEATHER_PRIVATE_KEY_PATH is required", domain.ErrConfiguration)
	}

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read private key: %w", domain.ErrConfiguration, err)
	}

	key, err := parsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Signer{keyID: keyID, subject: subject, key: key, clock: clock}, nil
}

func parsePrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(pemBytes)
	if err != nil {
		if errors.Is(err, jwt.ErrNotEdPrivateKey) {
			return nil, fmt.Errorf("%w: private key is not Ed25519", domain.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: parse private key: %w", domain.ErrCrypto, err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not Ed25519", domain.ErrConfiguration)
	}
	return key, nil
}

// Token returns a freshly signed token. Tokens are never reused across
// requests.
func (s *Signer) Token() (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now.Add(-issuedAtSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = s.keyID
	delete(tok.Header, "typ")

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", domain.ErrCrypto, err)
	}
	return signed, nil
}
