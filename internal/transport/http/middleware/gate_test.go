package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/portal-auth/internal/application/gate"
	"github.com/portal-auth/internal/application/session"
)

type mockChecker struct{ mock.Mock }

func (m *mockChecker) Check(ctx context.Context, sessionID string) (*session.Result, error) {
	args := m.Called(ctx, sessionID)
	res, _ := args.Get(0).(*session.Result)
	return res, args.Error(1)
}

var testCookie = CookieOptions{Name: "session_id", MaxAge: 24 * time.Hour}

func gatedHandler(ch gate.Checker) http.Handler {
	g := gate.New(ch, "/portal/login.html")
	return Gate(g, testCookie)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("secret"))
	}))
}

func TestGate_NoCookieRedirects(t *testing.T) {
	ch := new(mockChecker)
	rr := httptest.NewRecorder()

	gatedHandler(ch).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/portal/index.html", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/portal/login.html", rr.Header().Get("Location"))
	assert.NotContains(t, rr.Body.String(), "secret")
	ch.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestGate_LoginPageIsExempt(t *testing.T) {
	ch := new(mockChecker)
	rr := httptest.NewRecorder()

	gatedHandler(ch).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/portal/login.html", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGate_InvalidSessionClearsCookie(t *testing.T) {
	ch := new(mockChecker)
	ch.On("Check", mock.Anything, "stale").Return(&session.Result{Reason: session.ReasonExpired}, nil)
	req := httptest.NewRequest(http.MethodGet, "/portal/index.html", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	rr := httptest.NewRecorder()

	gatedHandler(ch).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "session_id", cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	}
}

func TestGate_ValidSessionServes(t *testing.T) {
	ch := new(mockChecker)
	ch.On("Check", mock.Anything, "good").Return(&session.Result{Valid: true, Email: "a@x.com"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/portal/index.html", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "good"})
	rr := httptest.NewRecorder()

	gatedHandler(ch).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "secret", rr.Body.String())
}

func TestCookieClient_StoreCredential(t *testing.T) {
	rr := httptest.NewRecorder()
	c := NewCookieClient(rr, httptest.NewRequest(http.MethodPost, "/", nil), CookieOptions{Name: "sid", MaxAge: time.Hour, Secure: true})

	c.StoreCredential("abc")

	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "abc", cookies[0].Value)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
	}
}
