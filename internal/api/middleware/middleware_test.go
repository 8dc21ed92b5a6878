package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiyon21/Finsight-AI/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def", "abc.def"},
		{"lowercase scheme", "bearer xyz", "xyz"},
		{"missing", "", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"empty token", "Bearer   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var got string
			r.GET("/", BearerToken(), func(c *gin.Context) {
				got = c.GetString(BearerTokenKey)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCors_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(Cors())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestCors_NoOrigin(t *testing.T) {
	r := gin.New()
	r.Use(Cors())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf)

	r := gin.New()
	r.Use(RequestLogger(base))
	r.GET("/x", func(c *gin.Context) {
		l := logger.FromContext(c.Request.Context(), base)
		l.Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected generated request id")
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"`+id+`"`) != 2 {
		t.Errorf("expected handler and access log to carry request id, got:\n%s", out)
	}
	if !strings.Contains(out, `"status":200`) {
		t.Errorf("access log missing status:\n%s", out)
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logger.NewWithWriter(&bytes.Buffer{})))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(logger.NewWithWriter(&buf)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Internal server error") {
		t.Errorf("body = %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Errorf("panic not logged:\n%s", buf.String())
	}
}
