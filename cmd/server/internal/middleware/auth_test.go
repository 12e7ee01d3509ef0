package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func authTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TokenAuth(secret, slog.Default()))
	r.POST("/transcribe", func(c *gin.Context) {
		user, _ := c.Get("user")
		c.JSON(http.StatusOK, gin.H{"user": user})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/ws/transcribe/abc", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestTokenAuth_DisabledWithoutSecret(t *testing.T) {
	r := authTestRouter("")

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected auth bypass with empty secret, got %d", w.Code)
	}
}

func TestTokenAuth_MissingToken(t *testing.T) {
	r := authTestRouter(testSecret)

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestTokenAuth_ValidToken(t *testing.T) {
	r := authTestRouter(testSecret)

	token, err := IssueToken(testSecret, "tester", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTokenAuth_WrongSecretRejected(t *testing.T) {
	r := authTestRouter(testSecret)

	token, err := IssueToken("another-secret-another-secret-32", "tester", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with forged token, got %d", w.Code)
	}
}

func TestTokenAuth_ExpiredTokenRejected(t *testing.T) {
	r := authTestRouter(testSecret)

	token, err := IssueToken(testSecret, "tester", -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with expired token, got %d", w.Code)
	}
}

func TestTokenAuth_SkipsExemptPaths(t *testing.T) {
	r := authTestRouter(testSecret)

	for _, path := range []string{"/health", "/ws/transcribe/abc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected %s to bypass auth, got %d", path, w.Code)
		}
	}
}
