package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"

	"github.com/gin-gonic/gin"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{constant.ErrInvalidAction, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", constant.ErrInvalidEntity), http.StatusBadRequest},
		{constant.ErrInvalidTimestamp, http.StatusBadRequest},
		{constant.ErrBadRequest, http.StatusBadRequest},
		{constant.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("redis: %w", constant.ErrStoreUnavailable), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if code, _ := StatusFor(tt.err); code != tt.code {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, code, tt.code)
		}
	}
}

func TestErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)

	Error(c, fmt.Errorf("dial tcp 10.0.0.5:6379: refused: %w", constant.ErrStoreUnavailable))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Error != "Internal server error" {
		t.Fatalf("error message = %q leaks internals", body.Error)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("error must be attached to the context for request logging")
	}
}
