package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/contacts"
	"github.com/pavelkurin/portfolio_backend/internal/hash"
	"github.com/pavelkurin/portfolio_backend/internal/mail"
	"github.com/pavelkurin/portfolio_backend/internal/service"
	"github.com/pavelkurin/portfolio_backend/internal/store"
	"github.com/pavelkurin/portfolio_backend/internal/tokens"
)

type testEnv struct {
	E     *echo.Echo
	Store *store.GormStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.OpenSQLiteMemory()
	require.NoError(t, err)
	st := store.NewGormStore(db)

	signer := tokens.NewSigner([]byte("test-secret"))
	hasher := hash.Bcrypt{}
	policy := authz.Policy{DefaultSuperUserEmail: "root@portfolio.test"}

	sessions := &service.SessionService{
		Store: st, Signer: signer, Hasher: hasher,
		AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour,
	}
	accounts := &service.AccountService{
		Store: st, Policy: policy, Hasher: hasher, Mailer: mail.LogMailer{},
	}
	recovery := &service.RecoveryService{
		Store: st, Signer: signer, Hasher: hasher, Mailer: mail.LogMailer{},
		BaseURL: "https://portfolio.test", ResetTTL: 30 * time.Minute, ConfirmTTL: 10 * time.Minute,
	}
	mailbox := &contacts.Service{DB: db, Policy: policy, Index: "contacts"}

	e := echo.New()
	Register(e, &Deps{
		Auth:    &AuthHandler{Accounts: accounts, Sessions: sessions, Recovery: recovery},
		Contact: &ContactHandler{Svc: mailbox},
		MW:      &AuthMiddleware{Sessions: sessions},
	})
	return &testEnv{E: e, Store: st}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterThenConflict(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/Auth/register", map[string]string{
		"username": "alice", "email": "alice@x.com", "password": "Abc12345!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)

	rec = env.do(t, http.MethodPost, "/api/Auth/register", map[string]string{
		"username": "alice2", "email": "alice@x.com", "password": "Abc12345!",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	resp = decode(t, rec)
	require.False(t, resp.Success)
	require.Equal(t, "UnavailableEmail", resp.Message)
}

func TestRegisterElevatedRoleIsNeutral(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/Auth/register", map[string]string{
		"username": "boss", "email": "boss@x.com", "password": "Abc12345!", "role": "Admin",
	})
	// indistinguishable from a no-op success, nothing created
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Nil(t, resp.Data)

	taken, err := env.Store.EmailTaken(context.Background(), "boss@x.com")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestLoginWrongPasswordEnvelope(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")

	rec := env.do(t, http.MethodPost, "/api/Auth/login", map[string]string{
		"identifier": "alice", "password": "Wrong1234",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.False(t, resp.Success)
	require.Equal(t, "Password is incorrect", resp.Message)
}

func TestLoginUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/Auth/login", map[string]string{
		"identifier": "ghost", "password": "Abc12345!",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func registerUser(t *testing.T, env *testEnv, username, email string) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/Auth/register", map[string]string{
		"username": username, "email": email, "password": "Abc12345!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

type loginData struct {
	AccessToken string `json:"accessToken"`
	Cookies     []*http.Cookie
}

func login(t *testing.T, env *testEnv, identifier string) loginData {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/Auth/login", map[string]string{
		"identifier": identifier, "password": "Abc12345!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)

	return loginData{AccessToken: resp.Data.AccessToken, Cookies: rec.Result().Cookies()}
}

func TestLoginSetsRefreshCookies(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")

	ld := login(t, env, "alice")
	var names []string
	for _, c := range ld.Cookies {
		names = append(names, c.Name)
		require.True(t, c.HttpOnly)
	}
	require.Contains(t, names, refreshCookieName)
	require.Contains(t, names, refreshIDCookieName)
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")
	ld := login(t, env, "alice")

	withAuth := func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ld.AccessToken)
		for _, c := range ld.Cookies {
			req.AddCookie(c)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/Auth/refreshToken", nil, withAuth)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)

	// old access token no longer passes the check
	rec = env.do(t, http.MethodPost, "/api/Auth/logout", nil, withAuth)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshWithoutCookiesRejected(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")
	ld := login(t, env, "alice")

	rec := env.do(t, http.MethodPost, "/api/Auth/refreshToken", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ld.AccessToken)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")
	ld := login(t, env, "alice")

	rec := env.do(t, http.MethodPost, "/api/Auth/logout", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ld.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// session is gone
	rec = env.do(t, http.MethodPost, "/api/Auth/logout", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ld.AccessToken)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetConfirmationWithFakeToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/Auth/resetPasswordConfirmation?token=FAKE", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Nil(t, resp.Data)
}

func TestGetUsersRequiresPrivilege(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "alice", "alice@x.com")
	ld := login(t, env, "alice")

	rec := env.do(t, http.MethodGet, "/api/Auth/getUsers", nil, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ld.AccessToken)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/Auth/getUsers", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
