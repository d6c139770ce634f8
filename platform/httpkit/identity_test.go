package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stubJWTConfig struct{ secret string }

func (c stubJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authTestRouter(cfg stubJWTConfig, capture func(c *gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected", AuthRequired(cfg), func(c *gin.Context) {
		capture(c)
		c.Status(http.StatusOK)
	})
	return engine
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	cfg := stubJWTConfig{secret: "test-secret"}
	agentID := uuid.New()
	teamID := uuid.New()

	var gotAgent uuid.UUID
	var gotTeam *uuid.UUID
	engine := authTestRouter(cfg, func(c *gin.Context) {
		gotAgent, _ = AgentID(c)
		gotTeam = TeamID(c)
	})

	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":    agentID.String(),
		"teamId": teamID.String(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotAgent != agentID {
		t.Fatalf("expected agent %s, got %s", agentID, gotAgent)
	}
	if gotTeam == nil || *gotTeam != teamID {
		t.Fatalf("expected team %s, got %v", teamID, gotTeam)
	}
}

func TestAuthRequiredRejectsMissingAndMalformedHeaders(t *testing.T) {
	cfg := stubJWTConfig{secret: "test-secret"}
	engine := authTestRouter(cfg, func(c *gin.Context) {})

	for _, header := range []string{"", "Bearer ", "Token abc", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRequiredRejectsWrongSecretAndExpiredTokens(t *testing.T) {
	cfg := stubJWTConfig{secret: "test-secret"}
	engine := authTestRouter(cfg, func(c *gin.Context) {})

	wrongSecret := signToken(t, "other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, cfg.secret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	for name, token := range map[string]string{"wrong secret": wrongSecret, "expired": expired} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestAuthRequiredRejectsNonUUIDSubject(t *testing.T) {
	cfg := stubJWTConfig{secret: "test-secret"}
	engine := authTestRouter(cfg, func(c *gin.Context) {})

	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub": "agent-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-uuid subject, got %d", rec.Code)
	}
}
