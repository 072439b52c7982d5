package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

type mockUsers struct {
	FindFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.FindFunc(ctx, email)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newGatedRouter(verifier *utils.TokenVerifier, users UserLookup) *gin.Engine {
	r := gin.New()
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(CtxUserEmail)})
	}
	r.GET("/private", JWTAuthMiddleware(verifier), ok)
	r.GET("/admin", JWTAuthMiddleware(verifier), RoleAuthMiddleware(users, models.RoleAdmin), ok)
	r.GET("/optional", JWTTryAuthMiddleware(verifier), ok)
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateStatuses(t *testing.T) {
	verifier := utils.NewTokenVerifier("secret", "")
	users := &mockUsers{FindFunc: func(ctx context.Context, email string) (*models.User, error) {
		switch email {
		case "admin@example.com":
			return &models.User{Email: email, Role: models.RoleAdmin}, nil
		case "user@example.com":
			return &models.User{Email: email, Role: models.RoleUser}, nil
		case "broken@example.com":
			return nil, errors.New("db down")
		}
		return nil, services.ErrNotFound
	}}
	r := newGatedRouter(verifier, users)

	token := func(email string) string {
		tok, err := verifier.GenerateToken(email, "", time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		return "Bearer " + tok
	}
	expired, _ := verifier.GenerateToken("user@example.com", "", -time.Hour)

	cases := []struct {
		name string
		path string
		auth string
		want int
	}{
		{"missing header", "/private", "", http.StatusUnauthorized},
		{"bad scheme", "/private", "Basic abc", http.StatusUnauthorized},
		{"expired token", "/private", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "/private", token("user@example.com"), http.StatusOK},
		{"admin ok", "/admin", token("admin@example.com"), http.StatusOK},
		{"non admin", "/admin", token("user@example.com"), http.StatusForbidden},
		{"unknown user", "/admin", token("ghost@example.com"), http.StatusForbidden},
		{"lookup failure", "/admin", token("broken@example.com"), http.StatusInternalServerError},
		{"admin without token", "/admin", "", http.StatusUnauthorized},
		{"optional anonymous", "/optional", "", http.StatusOK},
		{"optional bad token", "/optional", "Bearer junk", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(r, tc.path, tc.auth)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
