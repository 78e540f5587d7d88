package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueAuthenticateRoundTrip(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	token, userID, err := svc.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)

	got, err := svc.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Authenticate(token)
		require.ErrorIs(t, err, ErrUnauthenticated, "token %q", token)
	}
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	token, _, err := NewService([]byte("one secret")).Issue()
	require.NoError(t, err)

	_, err = NewService([]byte("another secret")).Authenticate(token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMiddleware(t *testing.T) {
	svc := NewService([]byte("test-secret"))
	token, userID, err := svc.Issue()
	require.NoError(t, err)

	var seen string
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	}))

	// No cookie at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Valid cookie passes through with the user id attached.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, seen)
}
