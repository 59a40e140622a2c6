package response

import (
	"errors"
	"net/http"

	"blog_cms/pkg/errs"
	"blog_cms/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Response 统一响应结构
type Response struct {
	Status  string      `json:"status"`  // success / fail
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应 (HTTP 201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Status:  StatusSuccess,
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// NoContent 删除成功，无响应体
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Status:  StatusFail,
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Status:  StatusFail,
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError 根据业务错误类别输出对应的 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		Error(c, http.StatusNotFound, notFoundCode(errs.EntityOf(err)), err.Error())
	case errs.KindValidation:
		code := ErrInvalidParam
		if errs.EntityOf(err) == "password" {
			code = ErrPasswordMismatch
		}
		Error(c, http.StatusBadRequest, code, err.Error())
	case errs.KindUnauthorized:
		Error(c, http.StatusUnauthorized, ErrAuthFailed, err.Error())
	case errs.KindForbidden:
		Error(c, http.StatusForbidden, ErrNoPermission, err.Error())
	case errs.KindConflict:
		code := ErrSlugConflict
		switch {
		case errors.Is(err, errs.ErrInUse):
			code = ErrResourceInUse
		case errs.EntityOf(err) == "user":
			code = ErrUserExists
		}
		Error(c, http.StatusConflict, code, err.Error())
	default:
		logger.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
	}
}

func notFoundCode(entity string) int {
	switch entity {
	case "user":
		return ErrUserNotFound
	case "article":
		return ErrArticleNotFound
	case "category":
		return ErrCategoryNotFound
	case "sub-category":
		return ErrSubCategoryNotFound
	case "tag":
		return ErrTagNotFound
	default:
		return CodeError
	}
}
