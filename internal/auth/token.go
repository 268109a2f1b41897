package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

// verifierEnv holds raw env values before post-parse validation.
type verifierEnv struct {
	Issuer   string `env:"TRACKER_AUTH_ISSUER"`
	Audience string `env:"TRACKER_AUTH_AUDIENCE"`
	Secret   string `env:"TRACKER_AUTH_SECRET"`
}

// VerifierConfig defines how operator tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Secret   []byte
	Now      func() time.Time
}

// actorClaims is the internal claims type used for JWT parsing.
type actorClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	PartyKind string `json:"party_kind"`
	PartyID   string `json:"party_id"`
}

// LoadVerifierConfigFromEnv reads token verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	var raw verifierEnv
	if err := env.Parse(&raw); err != nil {
		return VerifierConfig{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	secret := strings.TrimSpace(raw.Secret)
	if issuer == "" {
		return VerifierConfig{}, fmt.Errorf("TRACKER_AUTH_ISSUER is required")
	}
	if audience == "" {
		return VerifierConfig{}, fmt.Errorf("TRACKER_AUTH_AUDIENCE is required")
	}
	if secret == "" {
		return VerifierConfig{}, fmt.Errorf("TRACKER_AUTH_SECRET is required")
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Secret:   []byte(secret),
		Now:      now,
	}, nil
}

// VerifyToken verifies an operator token and maps its claims to an actor.
func VerifyToken(token string, cfg VerifierConfig) (Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, apperrors.New(apperrors.CodeActorMissing, "bearer token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Secret) == 0 {
		return Actor{}, errors.New("token verifier is not configured")
	}

	var parsed actorClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithTimeFunc(cfg.Now),
	)
	if err != nil {
		return Actor{}, mapJWTError(err)
	}

	return actorFromClaims(parsed)
}

func actorFromClaims(claims actorClaims) (Actor, error) {
	actorID := strings.TrimSpace(claims.Subject)
	if actorID == "" {
		return Actor{}, apperrors.New(apperrors.CodeActorForbidden, "token subject is required")
	}

	role := Role(strings.TrimSpace(claims.Role))
	switch role {
	case RoleFactory, RoleDealer, RoleSubDealer, RoleServiceCenter, RoleAdmin:
	default:
		return Actor{}, apperrors.WithMetadata(apperrors.CodeActorForbidden, "token role is not recognized",
			map[string]string{"role": claims.Role})
	}

	actor := Actor{ID: actorID, Role: role}
	if role != RoleAdmin {
		party := domain.HolderRef{
			Kind: domain.HolderKind(strings.TrimSpace(claims.PartyKind)),
			ID:   strings.TrimSpace(claims.PartyID),
		}
		if err := party.Validate(); err != nil {
			return Actor{}, apperrors.New(apperrors.CodeActorForbidden, "token party reference is invalid")
		}
		actor.Party = party
	}
	return actor, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.New(apperrors.CodeActorForbidden, "token is expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperrors.New(apperrors.CodeActorForbidden, "token is not valid yet")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.New(apperrors.CodeActorForbidden, "token is malformed")
	default:
		return apperrors.Wrap(apperrors.CodeActorForbidden, "token verification failed", err)
	}
}
