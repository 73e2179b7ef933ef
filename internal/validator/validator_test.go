package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/idcard-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindRequiredFieldsUseJSONNames(t *testing.T) {
	var req model.StudentKeyRequest
	fields := bindBody(t, `{"class":"10"}`, &req)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	for _, name := range []string{"section", "roll_number"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("missing error for %q, got %v", name, fields)
		}
	}
	if _, ok := fields["class"]; ok {
		t.Errorf("class is present and should not be reported")
	}
}

func TestStudentStatusTagMessage(t *testing.T) {
	var req model.UpdateStatusRequest
	fields := bindBody(t, `{"status":"rejected"}`, &req)
	want := "status must be draft, submitted or approved"
	if fields["status"] != want {
		t.Errorf("got %q, want %q", fields["status"], want)
	}
}

func TestBindMalformedJSON(t *testing.T) {
	var req model.LoginRequest
	fields := bindBody(t, `{"username":`, &req)
	if _, ok := fields["detail"]; !ok {
		t.Errorf("expected detail entry, got %v", fields)
	}
}
