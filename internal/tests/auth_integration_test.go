package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/config"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/db"
	httphandler "github.com/CTNMjm/dsgvo-llm-sub000/internal/http"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/http/handlers"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/mailer"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/repo"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/spam"
)

func TestMain(m *testing.M) {
	// Set env if unset. Do NOT set DATABASE_URL; integration tests skip if missing.
	if os.Getenv("ADMIN_JWT_SECRET") == "" {
		os.Setenv("ADMIN_JWT_SECRET", "test-admin-secret-at-least-32-characters")
	}

	os.Exit(m.Run())
}

// testServer holds the server and DB for integration tests
type testServer struct {
	Server *httptest.Server
	DB     *sql.DB
	Tokens *auth.AdminTokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "config load must succeed for integration test")

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, RunMigrations(database), "migrations must run successfully")

	logger := zap.NewNop()
	memberRepo := repo.NewMemberRepo(database)
	codeRepo := repo.NewLoginCodeRepo(database)
	sessionRepo := repo.NewSessionRepo(database)
	moderationRepo := repo.NewModerationRepo(database)

	mail := mailer.NewLogMailer(logger)
	authService := auth.NewService(codeRepo, memberRepo, sessionRepo, mail, logger).
		WithTTLs(cfg.CodeTTL, cfg.SessionTTL)
	adminTokens := auth.NewAdminTokenService(cfg.AdminJWTSecret)
	checker := spam.NewDefaultChecker()

	authHandler := handlers.NewAuthHandler(authService, logger, cfg.SessionTTL, false)
	commentHandler := handlers.NewCommentHandler(moderationRepo, checker, mail, cfg.AdminEmail, logger)
	adminHandler := handlers.NewAdminHandler(moderationRepo, checker, logger)

	router := httphandler.NewRouter(authHandler, commentHandler, adminHandler, authService, adminTokens)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database, Tokens: adminTokens}
}

func (s *testServer) BaseURL() string { return s.Server.URL }

func (s *testServer) Truncate(t *testing.T) {
	t.Helper()
	require.NoError(t, TruncateTables(context.Background(), s.DB), "truncate tables")
}

// post sends a JSON POST with a synthetic client IP. Each subtest uses its own
// IP so the per-IP limiter windows stay independent between subtests.
func (s *testServer) post(t *testing.T, ip, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, s.BaseURL()+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// login runs the full request/verify round trip and returns the parsed
// response plus the session cookie.
func (s *testServer) login(t *testing.T, ip, email string) (verifyCodeResponse, *http.Cookie) {
	t.Helper()
	resp := s.post(t, ip, "/auth/request_code", map[string]string{"email": email})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code := s.latestCode(t, email)

	respVerify := s.post(t, ip, "/auth/verify_code", map[string]string{"email": email, "code": code})
	defer respVerify.Body.Close()
	verifyBody := readBody(respVerify)
	require.Equal(t, http.StatusOK, respVerify.StatusCode, "verify must return 200; body: %s", verifyBody)

	var res verifyCodeResponse
	require.NoError(t, json.Unmarshal([]byte(verifyBody), &res))
	cookie := sessionCookie(respVerify)
	require.NotNil(t, cookie, "verify must set the session cookie")
	return res, cookie
}

// latestCode reads the most recent login code for an email straight from the
// table; the test stack has no mail transport.
func (s *testServer) latestCode(t *testing.T, email string) string {
	t.Helper()
	var code string
	err := s.DB.QueryRow(
		"SELECT code FROM login_codes WHERE email = $1 ORDER BY created_at DESC LIMIT 1",
		email,
	).Scan(&code)
	require.NoError(t, err, "a login code row must exist for %s", email)
	return code
}

// verifyCodeResponse matches POST /auth/verify_code response
type verifyCodeResponse struct {
	Success bool `json:"success"`
	Member  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"member"`
	NewMember bool `json:"new_member"`
}

// sessionCookie extracts the member session cookie from a response.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "member_session" {
			return c
		}
	}
	return nil
}

func TestAuthIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	baseURL := ts.BaseURL()
	client := ts.Server.Client()
	const email = "kunde@firma.de"

	t.Run("A_HealthCheck", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("B_RequestCode", func(t *testing.T) {
		ts.Truncate(t)
		resp := ts.post(t, "203.0.113.1", "/auth/request_code", map[string]string{"email": email})
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "POST /auth/request_code must return 200; body: %s", body)

		code := ts.latestCode(t, email)
		assert.Len(t, code, 6)
	})

	t.Run("B2_RequestCode_EmailRateLimit", func(t *testing.T) {
		ts.Truncate(t)
		for i := 0; i < 3; i++ {
			resp := ts.post(t, "203.0.113.2", "/auth/request_code", map[string]string{"email": email})
			body := readBody(resp)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode, "request %d must return 200; body: %s", i+1, body)
		}
		resp := ts.post(t, "203.0.113.2", "/auth/request_code", map[string]string{"email": email})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "4th code for the same email must be limited; body: %s", readBody(resp))

		// A different address is unaffected.
		other := ts.post(t, "203.0.113.2", "/auth/request_code", map[string]string{"email": "andere@firma.de"})
		defer other.Body.Close()
		assert.Equal(t, http.StatusOK, other.StatusCode)
	})

	t.Run("B3_RequestCode_IPRateLimit", func(t *testing.T) {
		ts.Truncate(t)
		// Distinct emails so only the per-IP limiter can trip.
		var last *http.Response
		for i := 0; i < 11; i++ {
			addr := map[string]string{"email": string(rune('a'+i)) + "@firma.de"}
			resp := ts.post(t, "203.0.113.3", "/auth/request_code", addr)
			last = resp
			if resp.StatusCode == http.StatusTooManyRequests {
				break
			}
			resp.Body.Close()
		}
		require.NotNil(t, last)
		defer last.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, last.StatusCode, "11th request from one IP must be limited")
	})

	t.Run("C_VerifyCode_SetsSessionCookie", func(t *testing.T) {
		ts.Truncate(t)
		res, cookie := ts.login(t, "203.0.113.4", email)
		assert.True(t, res.Success)
		assert.True(t, res.NewMember, "first login must create the member")
		assert.Equal(t, email, res.Member.Email)
		assert.Len(t, cookie.Value, 64)
		assert.True(t, cookie.HttpOnly)

		// The cookie authenticates /me.
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/me", nil)
		req.AddCookie(cookie)
		respMe, err := client.Do(req)
		require.NoError(t, err)
		defer respMe.Body.Close()
		assert.Equal(t, http.StatusOK, respMe.StatusCode)
		var meRes struct {
			Member *struct {
				Email string `json:"email"`
			} `json:"member"`
		}
		require.NoError(t, json.NewDecoder(respMe.Body).Decode(&meRes))
		require.NotNil(t, meRes.Member)
		assert.Equal(t, email, meRes.Member.Email)
	})

	t.Run("C2_VerifyCode_SingleUse", func(t *testing.T) {
		ts.Truncate(t)
		resp := ts.post(t, "203.0.113.5", "/auth/request_code", map[string]string{"email": email})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		code := ts.latestCode(t, email)

		first := ts.post(t, "203.0.113.5", "/auth/verify_code", map[string]string{"email": email, "code": code})
		first.Body.Close()
		require.Equal(t, http.StatusOK, first.StatusCode)

		second := ts.post(t, "203.0.113.5", "/auth/verify_code", map[string]string{"email": email, "code": code})
		defer second.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, second.StatusCode, "a used code must be rejected; body: %s", readBody(second))
	})

	t.Run("C3_VerifyCode_WrongCode", func(t *testing.T) {
		ts.Truncate(t)
		resp := ts.post(t, "203.0.113.6", "/auth/request_code", map[string]string{"email": email})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respVerify := ts.post(t, "203.0.113.6", "/auth/verify_code", map[string]string{"email": email, "code": "000000"})
		defer respVerify.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, respVerify.StatusCode)

		var attempts int
		require.NoError(t, ts.DB.QueryRow(
			"SELECT COALESCE(MAX(attempt_count), 0) FROM login_codes WHERE email = $1", email,
		).Scan(&attempts))
		assert.Equal(t, 0, attempts, "an unknown code must not touch stored rows")
	})

	t.Run("D_ReturningMember", func(t *testing.T) {
		ts.Truncate(t)
		firstLogin, _ := ts.login(t, "203.0.113.7", email)
		assert.True(t, firstLogin.NewMember)
		secondLogin, _ := ts.login(t, "203.0.113.7", email)
		assert.False(t, secondLogin.NewMember, "second login must reuse the member")
		assert.Equal(t, firstLogin.Member.ID, secondLogin.Member.ID)
	})

	t.Run("E_LogoutEndsSession", func(t *testing.T) {
		ts.Truncate(t)
		_, cookie := ts.login(t, "203.0.113.8", email)

		req, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/logout", nil)
		req.AddCookie(cookie)
		respLogout, err := client.Do(req)
		require.NoError(t, err)
		respLogout.Body.Close()
		assert.Equal(t, http.StatusOK, respLogout.StatusCode)

		// The old token no longer resolves.
		reqMe, _ := http.NewRequest(http.MethodGet, baseURL+"/me", nil)
		reqMe.AddCookie(cookie)
		respMe, err := client.Do(reqMe)
		require.NoError(t, err)
		defer respMe.Body.Close()
		var meRes struct {
			Member *json.RawMessage `json:"member"`
		}
		require.NoError(t, json.NewDecoder(respMe.Body).Decode(&meRes))
		assert.Nil(t, meRes.Member)

		// Logging out twice is fine.
		reqAgain, _ := http.NewRequest(http.MethodPost, baseURL+"/auth/logout", nil)
		reqAgain.AddCookie(cookie)
		respAgain, err := client.Do(reqAgain)
		require.NoError(t, err)
		respAgain.Body.Close()
		assert.Equal(t, http.StatusOK, respAgain.StatusCode)
	})

	t.Run("F_ProfileUpdate", func(t *testing.T) {
		ts.Truncate(t)
		_, cookie := ts.login(t, "203.0.113.9", email)

		payload, _ := json.Marshal(map[string]string{"name": "Maria Schmidt"})
		req, _ := http.NewRequest(http.MethodPatch, baseURL+"/me/profile", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)
		respPatch, err := client.Do(req)
		require.NoError(t, err)
		defer respPatch.Body.Close()
		patchBody := readBody(respPatch)
		assert.Equal(t, http.StatusOK, respPatch.StatusCode, "PATCH /me/profile must return 200; body: %s", patchBody)

		var patchRes struct {
			Member struct {
				DisplayName *string `json:"display_name"`
			} `json:"member"`
		}
		require.NoError(t, json.Unmarshal([]byte(patchBody), &patchRes))
		require.NotNil(t, patchRes.Member.DisplayName)
		assert.Equal(t, "Maria Schmidt", *patchRes.Member.DisplayName)

		// Without a session the endpoint is closed.
		reqNoAuth, _ := http.NewRequest(http.MethodPatch, baseURL+"/me/profile", bytes.NewReader(payload))
		respNoAuth, err := client.Do(reqNoAuth)
		require.NoError(t, err)
		respNoAuth.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, respNoAuth.StatusCode)
	})

	t.Run("G_ExpiredCodeRejected", func(t *testing.T) {
		ts.Truncate(t)
		resp := ts.post(t, "203.0.113.10", "/auth/request_code", map[string]string{"email": email})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		code := ts.latestCode(t, email)

		_, err := ts.DB.Exec(
			"UPDATE login_codes SET expires_at = now() - interval '1 minute' WHERE email = $1", email,
		)
		require.NoError(t, err)

		respVerify := ts.post(t, "203.0.113.10", "/auth/verify_code", map[string]string{"email": email, "code": code})
		defer respVerify.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, respVerify.StatusCode)

		var attempts int
		require.NoError(t, ts.DB.QueryRow(
			"SELECT MAX(attempt_count) FROM login_codes WHERE email = $1", email,
		).Scan(&attempts))
		assert.Equal(t, 1, attempts, "a failed verification against a known code must be counted")
	})
}

// readBody reads and returns the response body (consumes it). Use for error messages only.
func readBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
