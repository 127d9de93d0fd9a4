package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/adflow/filegate/internal/gate/service"
	"github.com/adflow/filegate/internal/gate/store/drivers/sqlite"
	"github.com/adflow/filegate/pkg/signx"
)

type routerFixture struct {
	router *Router
	svc    *service.TokenService
	clock  *time.Time
}

func newRouterFixture(t *testing.T, adminSecret, botUsername string) *routerFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := time.Unix(1_700_000_000, 0)
	svc := &service.TokenService{
		Store:         st,
		Signer:        signx.New("test-secret"),
		BaseURL:       "https://gate.example",
		PendingWindow: 12 * time.Hour,
		AccessWindow:  12 * time.Hour,
		Now:           func() time.Time { return clock },
	}

	logger := slog.New(slog.DiscardHandler)
	router := NewRouter("test", st, nil, logger)
	router.TokenService = svc
	router.StatsService = &service.StatsService{Store: st, Now: svc.Now}
	router.BotUsername = botUsername
	if adminSecret != "" {
		router.AdminSecret = []byte(adminSecret)
	}
	router.ApplyRoutes()

	return &routerFixture{router: router, svc: svc, clock: &clock}
}

func (f *routerFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// issueToken mints a pending token directly through the service and
// returns its encoded wire form.
func (f *routerFixture) issueToken(t *testing.T, subjectID string) string {
	t.Helper()

	issuedURL, err := f.svc.Issue(t.Context(), subjectID)
	require.NoError(t, err)

	u, err := url.Parse(issuedURL)
	require.NoError(t, err)
	return u.Query().Get("data")
}

func TestWatchThenVerifyFlow(t *testing.T) {
	f := newRouterFixture(t, "", "testbot")
	encoded := f.issueToken(t, "12345")

	t.Run("watch forwards to verify", func(t *testing.T) {
		rec := f.get(t, "/watch?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "/verify?data=")
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("verify redeems and deep links to the bot", func(t *testing.T) {
		rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "tg://resolve?domain=testbot&amp;start=verified")
	})

	t.Run("second verify conflicts", func(t *testing.T) {
		rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("watch on a used token conflicts too", func(t *testing.T) {
		rec := f.get(t, "/watch?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestVerifyWithoutBotUsername(t *testing.T) {
	f := newRouterFixture(t, "", "")
	encoded := f.issueToken(t, "12345")

	rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "tg://resolve")
}

func TestVerificationErrorStatuses(t *testing.T) {
	f := newRouterFixture(t, "", "testbot")

	t.Run("missing data", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, f.get(t, "/verify").Code)
		require.Equal(t, http.StatusBadRequest, f.get(t, "/watch").Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := f.get(t, "/verify?data=%21%21garbage%21%21")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("forged token", func(t *testing.T) {
		forged := signx.New("attacker-secret")
		encoded := signx.EncodeToken("12345:1700000000", forged.Sign("12345:1700000000"))

		rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signed but unknown token", func(t *testing.T) {
		payload := "99999:1700000000"
		encoded := signx.EncodeToken(payload, f.svc.Signer.Sign(payload))

		rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		encoded := f.issueToken(t, "12345")
		*f.clock = f.clock.Add(12*time.Hour + time.Second)

		rec := f.get(t, "/verify?data="+url.QueryEscape(encoded))
		require.Equal(t, http.StatusGone, rec.Code)
	})
}

func adminJWT(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "bot-frontend",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestInternalAPIRequiresBearerToken(t *testing.T) {
	f := newRouterFixture(t, "admin-secret", "testbot")

	t.Run("no token", func(t *testing.T) {
		rec := f.get(t, "/v1/access?subject_id=12345")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`)
	})

	t.Run("wrongly signed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/access?subject_id=12345", nil)
		req.Header.Set("Authorization", "Bearer "+adminJWT(t, "wrong-secret"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestInternalAPIFlow(t *testing.T) {
	f := newRouterFixture(t, "admin-secret", "testbot")
	bearer := "Bearer " + adminJWT(t, "admin-secret")

	do := func(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
		t.Helper()

		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		req.Header.Set("Authorization", bearer)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("issue validates the body", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/v1/tokens/issue", `not json`).Code)
		require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/v1/tokens/issue", `{}`).Code)
		require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/v1/tokens/issue", `{"subject_id":"a:b"}`).Code)
	})

	t.Run("issue returns a watch url", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/v1/tokens/issue", `{"subject_id":"12345"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"subject_id":"12345"`)
		require.Contains(t, rec.Body.String(), "https://gate.example/watch?data=")
	})

	t.Run("access flips after redemption", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/access?subject_id=12345", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"has_access":false`)

		encoded := f.issueToken(t, "12345")
		require.Equal(t, http.StatusOK, f.get(t, "/verify?data="+url.QueryEscape(encoded)).Code)

		rec = do(t, http.MethodGet, "/v1/access?subject_id=12345", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"has_access":true`)
	})

	t.Run("access requires subject_id", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, "/v1/access", "").Code)
	})

	t.Run("stats snapshot", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/admin/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"subjects"`)
		require.Contains(t, rec.Body.String(), `"tokens_issued"`)
	})
}

func TestInternalAPIDisabledWithoutSecret(t *testing.T) {
	f := newRouterFixture(t, "", "testbot")

	rec := f.get(t, "/v1/access?subject_id=12345")
	require.Equal(t, http.StatusNotFound, rec.Code, "internal routes should not exist without an admin secret")
}

func TestHealthEndpoints(t *testing.T) {
	f := newRouterFixture(t, "", "testbot")

	t.Run("livez", func(t *testing.T) {
		rec := f.get(t, "/livez")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"status":"ok"`)
		require.Contains(t, rec.Body.String(), `"version":"test"`)
	})

	t.Run("readyz", func(t *testing.T) {
		rec := f.get(t, "/readyz")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"database":"ok"`)
	})
}
