package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"souschef/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "uploads/")
	require.NoError(t, err)

	url, err := l.Save(context.Background(), "abc.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestLocalSaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	url, err := l.Save(context.Background(), "../../etc/passwd", "", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/passwd", url)
	assert.FileExists(t, filepath.Join(dir, "passwd"))

	_, err = l.Save(context.Background(), "..", "", []byte("x"))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(config.StorageConfig{Backend: "local", UploadDir: t.TempDir(), PublicPath: "/uploads"})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	_, err = New(config.StorageConfig{Backend: "minio"})
	assert.Error(t, err)

	m, err := New(config.StorageConfig{Backend: "minio", MinioEndpoint: "localhost:9000", MinioBucket: "uploads"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/uploads", m.(*Minio).publicURL)

	_, err = New(config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
