package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	h := NewCommonHandler(nil, db)
	r := gin.New()
	r.GET("/health", h.Health)

	t.Run("up", func(t *testing.T) {
		mock.ExpectPing()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"up"`)
	})

	t.Run("down", func(t *testing.T) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"down"`)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func uploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadFile(t *testing.T) {
	u := uploader.NewLocalUploader(t.TempDir(), 5)
	h := NewCommonHandler(u, nil)
	r := gin.New()
	r.POST("/upload", h.UploadFile)

	t.Run("images", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, map[string][]byte{"a.png": uploader.PNGHeader, "b.png": uploader.PNGHeader}))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		for _, key := range resp.Data {
			rc, err := u.Open(context.Background(), key)
			require.NoError(t, err)
			data, _ := io.ReadAll(rc)
			rc.Close()
			assert.Equal(t, uploader.PNGHeader, data)
		}
	})

	t.Run("non image rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, map[string][]byte{"a.txt": []byte("plain text")}))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusFail, resp.Status)
	})

	t.Run("no files", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, map[string][]byte{}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
