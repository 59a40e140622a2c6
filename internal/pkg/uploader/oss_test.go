package uploader

import (
	"context"
	"io"
	"regexp"
	"testing"

	"blog_cms/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^\d{8}/[0-9a-f-]{36}\.png$`)

func TestValidateImage(t *testing.T) {
	t.Run("png accepted", func(t *testing.T) {
		fh, err := NewFileHeader("picture", "a.png", PNGHeader)
		require.NoError(t, err)
		assert.NoError(t, ValidateImage(fh, 5<<20))
	})

	t.Run("text rejected", func(t *testing.T) {
		fh, err := NewFileHeader("picture", "a.png", []byte("hello, not an image"))
		require.NoError(t, err)
		assert.True(t, errs.Is(ValidateImage(fh, 5<<20), errs.KindValidation))
	})

	t.Run("too large", func(t *testing.T) {
		fh, err := NewFileHeader("picture", "a.png", append(PNGHeader, make([]byte, 2048)...))
		require.NoError(t, err)
		assert.True(t, errs.Is(ValidateImage(fh, 1024), errs.KindValidation))
	})

	t.Run("missing", func(t *testing.T) {
		assert.True(t, errs.Is(ValidateImage(nil, 1024), errs.KindValidation))
	})
}

func TestLocalUploaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	u := NewLocalUploader(t.TempDir(), 5)

	fh, err := NewFileHeader("picture", "Photo.PNG", PNGHeader)
	require.NoError(t, err)

	key, err := u.Upload(ctx, fh)
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key)

	rc, err := u.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, PNGHeader, data)

	_, err = u.Open(ctx, "20240101/missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = u.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
