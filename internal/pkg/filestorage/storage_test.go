package filestorage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart header the way a handler receives it.
func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, fh, err := req.FormFile("file")
	require.NoError(t, err)
	return fh
}

func TestObjectFileStorage_SaveAndPresign(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://files.test")
	fs := NewObjectFileStorage(store, time.Minute)

	key, err := fs.SaveFileWithPath(ctx, fileHeader(t, "Homework.PDF", "hello"), "/school_a/assignments/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "school_a/assignments/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	r, info, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)

	url, err := fs.URL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, fs.DeleteFile(ctx, key))
	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestObjectFileStorage_EmptyInputs(t *testing.T) {
	fs := NewObjectFileStorage(NewMemoryStore(""), 0)

	key, err := fs.SaveFileWithPath(context.Background(), nil, "x")
	assert.NoError(t, err)
	assert.Empty(t, key)

	url, err := fs.URL(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, url)
	assert.NoError(t, fs.DeleteFile(context.Background(), ""))
}
