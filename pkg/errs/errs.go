// Package errs 定义业务错误分类，供 service 层返回、response 层映射为 HTTP 状态码
package errs

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrInUse 资源仍被引用，不能删除
var ErrInUse = errors.New("resource is still in use")

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Entity  string // 相关实体，例如 category、user
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, entity, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// NotFound 引用的实体不存在
func NotFound(entity, format string, args ...interface{}) *Error {
	return newError(KindNotFound, entity, format, args...)
}

// Validation 参数缺失或格式错误
func Validation(entity, format string, args ...interface{}) *Error {
	return newError(KindValidation, entity, format, args...)
}

// Unauthorized 未登录或会话失效
func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, "", format, args...)
}

// Forbidden 无权操作该资源
func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, "", format, args...)
}

// Conflict slug 或唯一字段冲突
func Conflict(entity, format string, args ...interface{}) *Error {
	return newError(KindConflict, entity, format, args...)
}

// InUse 资源仍被其他实体引用，属于 Conflict
func InUse(entity, format string, args ...interface{}) *Error {
	e := newError(KindConflict, entity, format, args...)
	e.Err = ErrInUse
	return e
}

// KindOf 返回错误类别，非业务错误视为 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误是否属于指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// EntityOf 返回错误关联的实体名
func EntityOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity
	}
	return ""
}

// FromDB 将 gorm 错误翻译为业务错误
func FromDB(err error, entity, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%s %s not found", entity, key), Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Entity: entity, Message: fmt.Sprintf("%s %s already exists", entity, key), Err: err}
	default:
		return err
	}
}
