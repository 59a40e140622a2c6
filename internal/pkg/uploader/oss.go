package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog_cms/internal/pkg/config"
	"blog_cms/pkg/errs"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// ErrObjectNotFound key 对应的对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Uploader 对象存储：上传返回不透明的 key，按 key 读取字节流
type Uploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ValidateImage 仅允许图片，且不超过 maxBytes
func ValidateImage(file *multipart.FileHeader, maxBytes int64) error {
	if file == nil {
		return errs.Validation("picture", "picture is required")
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return errs.Validation("picture", "picture must be smaller than %d MB", maxBytes>>20)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return errs.Validation("picture", "only image files are allowed")
	}
	return nil
}

// newKey 生成对象 key：YYYYMMDD/uuid.ext
func newKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
}

// ContentType 按 key 的扩展名推断类型
func ContentType(key string) string {
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// validKey 拒绝越界路径
func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "..") && !strings.HasPrefix(key, "/")
}

type AliyunOSSUploader struct {
	bucket   *oss.Bucket
	maxBytes int64
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		bucket:   bucket,
		maxBytes: cfg.MaxSizeMB << 20,
	}, nil
}

func (u *AliyunOSSUploader) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := ValidateImage(file, u.maxBytes); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := newKey(file.Filename)
	if err := u.bucket.PutObject(key, src, oss.ContentType(file.Header.Get("Content-Type"))); err != nil {
		return "", err
	}
	// 只返回 key，读取时通过 Open 获取
	return key, nil
}

func (u *AliyunOSSUploader) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrObjectNotFound
	}
	body, err := u.bucket.GetObject(key)
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return body, nil
}

// LocalUploader 本地目录存储，未配置 OSS 时使用
type LocalUploader struct {
	dir      string
	maxBytes int64
}

func NewLocalUploader(dir string, maxSizeMB int64) *LocalUploader {
	return &LocalUploader{dir: dir, maxBytes: maxSizeMB << 20}
}

func (u *LocalUploader) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := ValidateImage(file, u.maxBytes); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := newKey(file.Filename)
	dst := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return key, nil
}

func (u *LocalUploader) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrObjectNotFound
	}
	f, err := os.Open(filepath.Join(u.dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

// New 根据配置选择 OSS 或本地存储
func New(cfg config.OSSConfig, localDir string) (Uploader, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return NewLocalUploader(localDir, cfg.MaxSizeMB), nil
	}
	return NewAliyunOSSUploader(cfg)
}
