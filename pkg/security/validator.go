package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"blog_cms/pkg/errs"
)

// Validator 验证器接口
type Validator interface {
	Validate(field, value string) error
	Sanitize(value string) string
}

// StringValidator 字符串验证器，长度按字符计算
type StringValidator struct {
	MinLength int
	MaxLength int
	Required  bool
	Pattern   *regexp.Regexp
}

// NewStringValidator 创建字符串验证器
func NewStringValidator(minLength, maxLength int, required bool) *StringValidator {
	return &StringValidator{
		MinLength: minLength,
		MaxLength: maxLength,
		Required:  required,
	}
}

// Validate 验证字符串
func (sv *StringValidator) Validate(field, value string) error {
	if value == "" {
		if sv.Required {
			return errs.Validation(field, "%s is required", field)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < sv.MinLength {
		return errs.Validation(field, "%s must be at least %d characters", field, sv.MinLength)
	}
	if sv.MaxLength > 0 && length > sv.MaxLength {
		return errs.Validation(field, "%s must be at most %d characters", field, sv.MaxLength)
	}
	if sv.Pattern != nil && !sv.Pattern.MatchString(value) {
		return errs.Validation(field, "%s has an invalid format", field)
	}
	return nil
}

// Sanitize 移除控制字符并去掉首尾空白
func (sv *StringValidator) Sanitize(value string) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(value)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailValidator 邮箱验证器
type EmailValidator struct {
	Required bool
}

// NewEmailValidator 创建邮箱验证器
func NewEmailValidator(required bool) *EmailValidator {
	return &EmailValidator{Required: required}
}

// Validate 验证邮箱
func (ev *EmailValidator) Validate(field, value string) error {
	if value == "" {
		if ev.Required {
			return errs.Validation(field, "email is required")
		}
		return nil
	}
	if len(value) > 255 || !emailRegex.MatchString(value) {
		return errs.Validation(field, "invalid email format")
	}
	return nil
}

// Sanitize 清理邮箱
func (ev *EmailValidator) Sanitize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// 常用字段规则
var (
	EmailRule       Validator = NewEmailValidator(true)
	PasswordRule    Validator = NewStringValidator(6, 72, true)
	UsernameRule    Validator = NewStringValidator(1, 32, true)
	CommentNameRule Validator = NewStringValidator(1, 64, true)
	CommentTextRule Validator = NewStringValidator(1, 2000, true)
)

// Check 先清理再验证，返回清理后的值
func Check(v Validator, field, value string) (string, error) {
	value = v.Sanitize(value)
	return value, v.Validate(field, value)
}
