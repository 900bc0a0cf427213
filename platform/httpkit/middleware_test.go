package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nordflytt_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type staticJWT string

func (s staticJWT) GetJWTAccessSecret() string { return string(s) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthRequired(staticJWT("secret")), RequireRole("staff"), func(c *gin.Context) {
		OK(c, gin.H{"user": GetIdentity(c).UserID().String()})
	})
	return r
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	r := newAuthRouter()
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": []string{"staff"},
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejects(t *testing.T) {
	r := newAuthRouter()
	cases := map[string]string{
		"missing":       "",
		"wrong secret":  "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": uuid.NewString(), "type": "access"}),
		"refresh token": "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"}),
		"bad subject":   "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "nope", "type": "access"}),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestRequireRoleForbidsMissingRole(t *testing.T) {
	r := newAuthRouter()
	token := signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "access"})
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/quote", NewIPRateLimiter(0, 2, nil).RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quote", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestHandleErrorMapsWrappedDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	err := apperr.Validation("volume must not be negative").WithDetails(map[string]string{"field": "volume"})
	if !HandleError(c, err) {
		t.Fatal("expected error to be handled")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
