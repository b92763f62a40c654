package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"github.com/vinnu2910/edutainverse/internal/platform/ctxutil"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

// AuthService verifies bearer tokens issued by the identity provider. The
// backend never sees credentials; it only trusts the signed subject.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken signs a token for local tooling and tests.
	IssueToken(learnerID uuid.UUID, role string, ttl time.Duration) (string, error)
}

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	issuer       string
	leeway       time.Duration
}

func NewAuthService(log *logger.Logger, jwtSecretKey, issuer string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret key required")
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		issuer:       strings.TrimSpace(issuer),
		leeway:       30 * time.Second,
	}, nil
}

func (as *authService) IssueToken(learnerID uuid.UUID, role string, ttl time.Duration) (string, error) {
	if learnerID == uuid.Nil {
		return "", fmt.Errorf("learner id required")
	}
	now := time.Now()
	claims := JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learnerID.String(),
			Issuer:    as.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "VerifyToken"
	if tokenString == "" {
		return ctx, apperr.New(apperr.CodeUnauthorized, op, "missing token", nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(as.leeway),
		jwt.WithExpirationRequired(),
	}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apperr.New(apperr.CodeUnauthorized, op, "token expired", err)
		}
		return ctx, apperr.New(apperr.CodeUnauthorized, op, "invalid token", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apperr.New(apperr.CodeUnauthorized, op, "invalid token", nil)
	}
	learnerID, err := uuid.Parse(claims.Subject)
	if err != nil || learnerID == uuid.Nil {
		return ctx, apperr.New(apperr.CodeUnauthorized, op, "invalid subject", err)
	}

	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		LearnerID: learnerID,
		Role:      strings.TrimSpace(claims.Role),
	})
	return ctx, nil
}
