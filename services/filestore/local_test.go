package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/material"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	key := "materials/grp/abc/notes.pdf"
	url, err := store.Upload(ctx, key, strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/materials/grp/abc/notes.pdf", url)

	rc, err := store.Download(ctx, key)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(content))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Download(ctx, key)
	assert.Equal(t, material.ErrFileNotFound, err)
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_dottedName(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root, LocalURLPrefix)
	require.NoError(t, err)

	url, err := store.Upload(ctx, "materials/grp/abc/notes..v2.pdf", strings.NewReader("v2"), 2, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/api/uploads/materials/grp/abc/notes..v2.pdf", url)

	content, err := os.ReadFile(filepath.Join(root, "materials", "grp", "abc", "notes..v2.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))

	_, err = store.Upload(ctx, "materials/../../outside.pdf", strings.NewReader("x"), 1, "application/pdf")
	assert.Equal(t, errInvalidKey, err)
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "materials/a/b.pdf", want: "materials/a/b.pdf"},
		{key: "/materials//a/b.pdf", want: "materials/a/b.pdf"},
		{key: "materials/a/notes..v2.pdf", want: "materials/a/notes..v2.pdf"},
		{key: "materials/a/..hidden", want: "materials/a/..hidden"},
		{key: "../etc/passwd", wantErr: true},
		{key: "materials/a/..", wantErr: true},
		{key: "materials/../../x", wantErr: true},
		{key: "", wantErr: true},
		{key: "/", wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.key, func(t *testing.T) {
			got, err := cleanKey(tc.key)
			if tc.wantErr {
				assert.Equal(t, errInvalidKey, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
