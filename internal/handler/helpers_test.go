package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pointake/internal/domain"
	"pointake/internal/handler"
	"pointake/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type caller struct {
	userID   uuid.UUID
	username string
	role     domain.UserRole
	token    string
}

var (
	admin   = caller{userID: uuid.New(), username: "admin1", role: domain.RoleAdmin, token: "tok-admin"}
	planner = caller{userID: uuid.New(), username: "planner1", role: domain.RoleUser, token: "tok-user"}
)

func newContext(method, target string, body io.Reader, who *caller) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	if who != nil {
		c.Set(middleware.ContextKeyUserID, who.userID)
		c.Set(middleware.ContextKeyUsername, who.username)
		c.Set(middleware.ContextKeyRole, string(who.role))
		c.Set(middleware.ContextKeyToken, who.token)
	}
	return c, w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func jsonRequest(c *gin.Context) {
	c.Request.Header.Set("Content-Type", "application/json")
}

