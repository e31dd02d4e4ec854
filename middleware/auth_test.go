package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protected() http.Handler {
	return Authenticate(testSecret)(RequireOrganizer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetOrganizerIDFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Organizer", strconv.Itoa(id))
		w.WriteHeader(http.StatusNoContent)
	})))
}

func serve(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tournaments", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	protected().ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	token, err := NewToken(testSecret, 42, time.Hour)
	require.NoError(t, err)

	rec := serve(t, "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("X-Organizer"))
}

func TestAuthenticateRejects(t *testing.T) {
	wrongKey, err := NewToken("other-secret", 42, time.Hour)
	require.NoError(t, err)
	expired, err := NewToken(testSecret, 42, -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{JWTClaimOrganizerID: 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage", "Bearer not.a.token"},
		{"wrong key", "Bearer " + wrongKey},
		{"expired", "Bearer " + expired},
		{"unsigned", "Bearer " + none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(t, tt.header).Code)
		})
	}
}

func TestRequireOrganizerRejectsTokenWithoutID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(t, "Bearer "+token).Code)
}

func TestGetOrganizerIDFromContext(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    int
		wantErr bool
	}{
		{"float", jwt.MapClaims{JWTClaimOrganizerID: float64(7)}, 7, false},
		{"string", jwt.MapClaims{JWTClaimOrganizerID: "9"}, 9, false},
		{"fraction", jwt.MapClaims{JWTClaimOrganizerID: 1.5}, 0, true},
		{"zero", jwt.MapClaims{JWTClaimOrganizerID: float64(0)}, 0, true},
		{"negative string", jwt.MapClaims{JWTClaimOrganizerID: "-3"}, 0, true},
		{"bool", jwt.MapClaims{JWTClaimOrganizerID: true}, 0, true},
		{"missing", jwt.MapClaims{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GetOrganizerIDFromContext(WithClaims(context.Background(), tt.claims))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := GetOrganizerIDFromContext(context.Background())
	assert.Error(t, err)
}
