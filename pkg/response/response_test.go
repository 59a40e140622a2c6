package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blog_cms/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(err error) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, err)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandleError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"category not found", errs.NotFound("category", "Category not found"), http.StatusNotFound, ErrCategoryNotFound},
		{"user not found", errs.NotFound("user", "User not found"), http.StatusNotFound, ErrUserNotFound},
		{"validation", errs.Validation("article", "title is required"), http.StatusBadRequest, ErrInvalidParam},
		{"password mismatch", errs.Validation("password", "Passwords dont match"), http.StatusBadRequest, ErrPasswordMismatch},
		{"unauthorized", errs.Unauthorized("Invalid Credentials"), http.StatusUnauthorized, ErrAuthFailed},
		{"forbidden", errs.Forbidden("not allowed"), http.StatusForbidden, ErrNoPermission},
		{"slug conflict", errs.Conflict("tag", "slug taken"), http.StatusConflict, ErrSlugConflict},
		{"user exists", errs.Conflict("user", "Email is taken"), http.StatusConflict, ErrUserExists},
		{"category in use", errs.InUse("category", "still referenced"), http.StatusConflict, ErrResourceInUse},
		{"internal", errors.New("db down"), http.StatusInternalServerError, ErrServerInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := run(tc.err)
			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, StatusFail, body.Status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	_, body := run(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body.Message)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
