package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestHealth verifies the health endpoint identifies the service
func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewHealthHandler().Health(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Status: got %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("Body missing status: %s", body)
	}
	if !strings.Contains(body, `"service":"vericlip"`) {
		t.Errorf("Body missing service name: %s", body)
	}
}
