package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid or expired access token")

// Claims are the access token claims issued by the auth collaborator.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns HS256 access tokens into identities.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. Empty issuer or audience disables that check.
func NewVerifier(secret, issuer, audience string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify validates rawToken and returns the identity it carries.
func (v *Verifier) Verify(rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	identity := &Identity{
		UserID:       userID,
		EmailOrPhone: claims.Email,
		SessionToken: claims.SessionID,
	}
	if identity.EmailOrPhone == "" {
		identity.EmailOrPhone = claims.Phone
	}
	if identity.SessionToken == "" {
		identity.SessionToken = Fingerprint(rawToken)
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// Fingerprint returns a stable digest of a raw token, used wherever a token
// has to serve as a key without being retained.
func Fingerprint(rawToken string) string {
	sum := blake2b.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
