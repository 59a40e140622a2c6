package handler

import (
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/response"

	"github.com/gin-gonic/gin"
)

// CommonHandler 上传与健康检查
type CommonHandler struct {
	uploader uploader.Uploader
	db       *sql.DB
}

func NewCommonHandler(u uploader.Uploader, db *sql.DB) *CommonHandler {
	return &CommonHandler{uploader: u, db: db}
}

// UploadFile 上传文件 (支持批量)
// @Summary 上传图片到对象存储 (支持批量)，返回对象 key
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Success 200 {object} response.Response{data=[]string} "Keys"
// @Router /upload [post]
func (h *CommonHandler) UploadFile(c *gin.Context) {
	// 解析 multipart form
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}

	// 结果数组，预分配大小，按索引写入保证顺序
	keys := make([]string, len(files))

	var wg sync.WaitGroup
	var errOnce sync.Once
	var uploadErr error

	// 限制并发数为 5，避免过多协程
	sem := make(chan struct{}, 5)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			key, err := h.uploader.Upload(c.Request.Context(), f)
			if err != nil {
				errOnce.Do(func() {
					uploadErr = err
				})
				return
			}
			keys[index] = key
		}(i, file)
	}

	wg.Wait()

	if uploadErr != nil {
		response.HandleError(c, uploadErr)
		return
	}

	response.Success(c, keys)
}

// Health 健康检查，探测数据库连接
// @Summary 健康检查
// @Tags Common
// @Produce json
// @Router /health [get]
func (h *CommonHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Status:  response.StatusFail,
			Code:    response.ErrServerInternal,
			Message: "database unavailable",
			Data:    gin.H{"database": "down"},
		})
		return
	}
	response.Success(c, gin.H{"database": "up"})
}
