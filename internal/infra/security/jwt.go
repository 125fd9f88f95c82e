package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing, signature
	// verification or claim validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well formed tokens past their expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrRefreshDisabled is returned when refresh tokens were requested but
	// no refresh secret is configured.
	ErrRefreshDisabled = errors.New("refresh tokens are not configured")
)

// AccessClaims is the payload carried by access tokens.
type AccessClaims struct {
	UserID   string `json:"id"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload carried by refresh tokens. Type is always
// "refresh" so an access token can never be replayed on the refresh path.
type RefreshClaims struct {
	UserID string `json:"id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Identity is the verified subject extracted from an access token.
type Identity struct {
	UserID   string
	Role     string
	FullName string
	Email    string
}

// TokenIssuer mints and verifies HS256 signed access and refresh tokens.
// Access and refresh tokens are signed with separate secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(secret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	issuer := &TokenIssuer{
		accessSecret: []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		now:          time.Now,
	}
	if refreshSecret != "" {
		issuer.refreshSecret = []byte(refreshSecret)
	}
	return issuer
}

// WithClock overrides the issuer's time source. Test helper.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// RefreshEnabled reports whether this issuer can mint refresh tokens.
func (t *TokenIssuer) RefreshEnabled() bool {
	return len(t.refreshSecret) > 0
}

// IssueAccessToken mints an access token for the given identity.
func (t *TokenIssuer) IssueAccessToken(id Identity) (string, error) {
	now := t.now()
	claims := AccessClaims{
		UserID:   id.UserID,
		Role:     id.Role,
		FullName: id.FullName,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken mints a refresh token for the given user.
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	if !t.RefreshEnabled() {
		return "", ErrRefreshDisabled
	}

	now := t.now()
	claims := RefreshClaims{
		UserID: userID,
		Type:   "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token and returns its identity.
func (t *TokenIssuer) ParseAccessToken(tokenString string) (Identity, error) {
	return t.parseAccess(tokenString, true)
}

// ParseAccessTokenIgnoreExpiry verifies an access token's signature and
// claims but accepts expired tokens. Used on the refresh path, where an
// expired but otherwise valid access token still proves who the caller is.
func (t *TokenIssuer) ParseAccessTokenIgnoreExpiry(tokenString string) (Identity, error) {
	return t.parseAccess(tokenString, false)
}

func (t *TokenIssuer) parseAccess(tokenString string, checkExpiry bool) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return t.accessSecret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:   claims.UserID,
		Role:     claims.Role,
		FullName: claims.FullName,
		Email:    claims.Email,
	}, nil
}

// ParseRefreshToken verifies a refresh token and returns the user ID it was
// minted for.
func (t *TokenIssuer) ParseRefreshToken(tokenString string) (string, error) {
	if !t.RefreshEnabled() {
		return "", ErrRefreshDisabled
	}

	var claims RefreshClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return t.refreshSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" || claims.Type != "refresh" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
