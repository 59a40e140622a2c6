package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"blog_cms/pkg/errs"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 生成 URL 友好的 slug：小写、去首尾空白，非字母数字的连续字符替换为 "-"
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeName 去除首尾空白并校验长度（按字符计）
func NormalizeName(entity, name string, min, max int) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", errs.Validation(entity, "%s name is required", entity)
	}
	if n < min || n > max {
		return "", errs.Validation(entity, "%s name must be between %d and %d characters", entity, min, max)
	}
	return name, nil
}

// SlugFor 由名称生成 slug，结果为空时返回校验错误
func SlugFor(entity, name string) (string, error) {
	slug := Slugify(name)
	if slug == "" {
		return "", errs.Validation(entity, "%s name must contain letters or digits", entity)
	}
	return slug, nil
}
