package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	JWTClaimOrganizerID = "user_id"
	jwtClaimIssuedAt    = "iat"
	jwtClaimExpiresAt   = "exp"
)

// NewToken signs an HS256 token for the organizer.
func NewToken(secret string, organizerID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		JWTClaimOrganizerID: organizerID,
		jwtClaimExpiresAt:   now.Add(ttl).Unix(),
		jwtClaimIssuedAt:    now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// WithClaims returns ctx carrying claims, as Authenticate would.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetOrganizerIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context or invalid type")
	}

	idClaim, ok := claims[JWTClaimOrganizerID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", JWTClaimOrganizerID)
	}

	idFloat, ok := idClaim.(float64)
	if !ok {
		idStr, okStr := idClaim.(string)
		if okStr {
			id, err := strconv.Atoi(idStr)
			if err == nil {
				if id <= 0 {
					return 0, fmt.Errorf("invalid organizer ID value in '%s' claim: %d", JWTClaimOrganizerID, id)
				}
				return id, nil
			}
		}
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64 or string, got %T", JWTClaimOrganizerID, idClaim)
	}

	if idFloat != float64(int(idFloat)) {
		return 0, fmt.Errorf("'%s' claim is not an integer: %f", JWTClaimOrganizerID, idFloat)
	}

	id := int(idFloat)
	if id <= 0 {
		return 0, fmt.Errorf("invalid organizer ID value in '%s' claim: %d", JWTClaimOrganizerID, id)
	}

	return id, nil
}
