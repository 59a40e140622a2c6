package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog_cms/internal/domain/user/model"
	"blog_cms/internal/domain/user/service"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockAuthService is a mock of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*service.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockAuthService) Activate(ctx context.Context, token string) (*service.Session, error) {
	return m.session(m.Called(ctx, token))
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password, confirm string) (*service.Session, error) {
	return m.session(m.Called(ctx, token, password, confirm))
}

func (m *MockAuthService) GoogleLogin(ctx context.Context, idToken string) (*service.Session, error) {
	return m.session(m.Called(ctx, idToken))
}

func (m *MockAuthService) Me(ctx context.Context, p *security.Principal) (*model.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newAuthRouter(s service.AuthService) *gin.Engine {
	h := NewAuthHandler(s)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.GET("/auth/logout", h.Logout)
	r.POST("/auth/account-activation", h.Activate)
	return r
}

func TestLoginSetsCookie(t *testing.T) {
	s := new(MockAuthService)
	r := newAuthRouter(s)

	session := &service.Session{User: &model.User{Username: "ann"}, Token: "signed.jwt.token", ExpiresAt: time.Now().Add(time.Hour)}
	s.On("Login", mock.Anything, "ann@example.com", "secret123").Return(session, nil)
	s.On("Login", mock.Anything, "ann@example.com", "wrong").Return(nil, errs.Unauthorized("email or password is incorrect"))

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"secret123"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.Equal(t, "signed.jwt.token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Greater(t, cookies[0].MaxAge, 0)
	})

	t.Run("Wrong password", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Invalid email", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"nope","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestActivateReturnsCreated(t *testing.T) {
	s := new(MockAuthService)
	r := newAuthRouter(s)
	s.On("Activate", mock.Anything, "activation-token").
		Return(&service.Session{User: &model.User{Username: "ann"}, Token: "t", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/account-activation", strings.NewReader(`{"token":"activation-token"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newAuthRouter(new(MockAuthService))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
