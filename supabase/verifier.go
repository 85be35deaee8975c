package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blazzica/marketplace-api/internal/observability"
	"github.com/blazzica/marketplace-api/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultAudience is the audience the identity provider stamps on user tokens
const DefaultAudience = "authenticated"

// Claims are the token claims the marketplace reads
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// KeySource resolves signing keys by kid
type KeySource interface {
	Key(ctx context.Context, kid string) (SigningKey, error)
}

// VerifierConfig configures token validation
type VerifierConfig struct {
	Audience string
	Issuer   string // checked only when set
	Leeway   time.Duration
	Clock    Clock
}

// Verifier validates bearer tokens issued by the identity provider
type Verifier struct {
	keys   KeySource
	parser *jwt.Parser
	logger *zap.Logger
}

// NewVerifier creates a verifier over keys
func NewVerifier(keys KeySource, cfg VerifierConfig, logger *zap.Logger) *Verifier {
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(clock.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{
		keys:   keys,
		parser: jwt.NewParser(opts...),
		logger: logger,
	}
}

// Verify validates token and returns the caller's identity.
// Every failure is an *AuthError.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.Identity, error) {
	identity, kid, err := v.verify(ctx, token)
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			authErr = authError(ErrSignatureInvalid, err)
		}
		observability.ForRequest(ctx, v.logger).Warn("token verification failed",
			zap.String("cause", authErr.Cause.Error()),
			zap.String("reason", authErr.Reason()),
			zap.String("kid", kid),
		)
		return nil, authErr
	}
	return identity, nil
}

func (v *Verifier) verify(ctx context.Context, token string) (*models.Identity, string, error) {
	unverified, _, err := v.parser.ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, "", authError(ErrMalformedToken, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, "", authError(ErrMalformedToken, errors.New("kid header not found"))
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		return nil, kid, err
	}

	parsed, err := v.parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != key.Alg {
			return nil, fmt.Errorf("%w: token alg %s, key declares %s", ErrSignatureInvalid, t.Method.Alg(), key.Alg)
		}
		return key.Key, nil
	})
	if err != nil {
		return nil, kid, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, kid, authError(ErrInvalidClaims, errors.New("unexpected claims type"))
	}
	if claims.Subject == "" {
		return nil, kid, authError(ErrInvalidClaims, errors.New("sub claim missing"))
	}

	return models.NewIdentity(claims.Subject, claims.Email, claims.Role), kid, nil
}

// classify maps a parser error to its verification cause
func classify(err error) *AuthError {
	switch {
	case errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return authError(ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return authError(ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return authError(ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return authError(ErrInvalidClaims, err)
	default:
		return authError(ErrSignatureInvalid, err)
	}
}
