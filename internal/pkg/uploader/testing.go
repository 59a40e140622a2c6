package uploader

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
)

// PNGHeader 最小的 PNG 文件头，测试中构造图片上传使用
var PNGHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// NewFileHeader 构造 multipart.FileHeader，供 handler/service 测试使用
func NewFileHeader(field, filename string, content []byte) (*multipart.FileHeader, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}
	return req.MultipartForm.File[field][0], nil
}
