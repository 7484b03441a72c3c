package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Generator signs and validates HS256 session tokens.
type Generator struct {
	secret []byte
	keyID  string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// SessionClaims are the custom claims carried by a session token.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// NewGenerator constructs a generator. The key id is derived from the secret so tokens stay
// valid across restarts.
func NewGenerator(secret []byte, issuer string, ttl time.Duration) *Generator {
	return &Generator{
		secret: secret,
		keyID:  uuid.NewSHA1(uuid.NameSpaceOID, secret).String(),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// KeyID identifies the signing key in the token header.
func (g *Generator) KeyID() string { return g.keyID }

// Generate produces a signed token for user.
func (g *Generator) Generate(user domain.User) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: g.secret},
		(&gojose.SignerOptions{}).WithType("JWT").WithHeader("kid", g.keyID),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := g.now().UTC()
	std := gojwt.Claims{
		Subject:   strconv.FormatInt(user.ID, 10),
		Issuer:    g.issuer,
		ID:        uuid.NewString(),
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(g.ttl)),
	}
	custom := SessionClaims{Email: user.Email, Name: user.Name, Role: user.Role}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// Validate checks signature, issuer and expiry and returns the user id.
func (g *Generator) Validate(token string) (int64, SessionClaims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return 0, SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var std gojwt.Claims
	var custom SessionClaims
	if err := parsed.Claims(g.secret, &std, &custom); err != nil {
		return 0, SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := std.ValidateWithLeeway(gojwt.Expected{Issuer: g.issuer, Time: g.now()}, time.Minute); err != nil {
		return 0, SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return 0, SessionClaims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, custom, nil
}
