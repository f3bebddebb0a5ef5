package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

func GetSessionIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(sessionClaimsKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("session claims not found in context or invalid type")
	}

	raw, ok := claims[jwtClaimSessionID]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimSessionID)
	}
	sessionID, ok := raw.(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("invalid type for '%s' claim: expected non-empty string, got %T", jwtClaimSessionID, raw)
	}
	return sessionID, nil
}

// WithSessionClaims is used by tests and internal callers that already
// verified a token.
func WithSessionClaims(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, jwt.MapClaims{jwtClaimSessionID: sessionID})
}
