package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APITest 博客接口的请求构造器
type APITest struct {
	baseURL string
	client  *http.Client
}

// NewAPITest baseURL 形如 http://localhost:8080/api/v1
func NewAPITest(baseURL string) *APITest {
	return &APITest{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

func (at *APITest) do(ctx context.Context, method, path string, body interface{}, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, at.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := at.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status code %d", method, path, resp.StatusCode)
	}
	return nil
}

// HealthCheckTest 健康检查
func (at *APITest) HealthCheckTest() RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/health", nil, "")
	}
}

// ArticleListTest 文章分页列表
func (at *APITest) ArticleListTest() RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/article?page=1&limit=20", nil, "")
	}
}

// ArticleGetTest 读取单篇文章，命中缓存路径
func (at *APITest) ArticleGetTest(slug string) RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/article/"+slug, nil, "")
	}
}

// TopArticlesTest 点赞排行
func (at *APITest) TopArticlesTest() RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/article/top", nil, "")
	}
}

// CategoryListTest 分类列表
func (at *APITest) CategoryListTest() RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/category", nil, "")
	}
}

// LoginTest 邮箱密码登录，bcrypt 使其成为最重的接口
func (at *APITest) LoginTest(email, password string) RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodPost, "/auth/login", map[string]string{
			"email":    email,
			"password": password,
		}, "")
	}
}

// UserListTest 用户列表，需要管理员或版主令牌
func (at *APITest) UserListTest(token string) RequestFunc {
	return func(ctx context.Context) error {
		return at.do(ctx, http.MethodGet, "/user", nil, token)
	}
}
