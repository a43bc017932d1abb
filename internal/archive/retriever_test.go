package archive

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir, name, memberName, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(memberName)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestEnsureDownloadsAndExtracts(t *testing.T) {
	srcDir := t.TempDir()
	zipPath := writeZip(t, srcDir, "2024-07-01-StockUniteLegale_utf8.zip",
		"StockUniteLegale_utf8.csv", "siren,denominationUniteLegale\n123456789,ACME\n")
	payload, err := os.ReadFile(zipPath)
	require.NoError(t, err)

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/2024-07-01-StockUniteLegale_utf8.zip", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	r := New(srv.URL, dataDir)

	extracted, err := r.Ensure(context.Background(), "2024-07-01-StockUniteLegale_utf8.zip")
	require.NoError(t, err)
	require.FileExists(t, extracted)

	content, err := os.ReadFile(extracted)
	require.NoError(t, err)
	require.Contains(t, string(content), "ACME")

	// Zip is removed after extraction.
	require.NoFileExists(t, filepath.Join(dataDir, "2024-07-01-StockUniteLegale_utf8.zip"))

	// Second call is idempotent: the extracted file short-circuits.
	again, err := r.Ensure(context.Background(), "2024-07-01-StockUniteLegale_utf8.zip")
	require.NoError(t, err)
	require.Equal(t, extracted, again)
	require.Equal(t, 1, requests)
}

func TestEnsureFailsLoudlyOnNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(srv.URL, t.TempDir())
	_, err := r.Ensure(context.Background(), "2024-07-01-StockUniteLegale_utf8.zip")
	require.Error(t, err)

	var retrieval *RetrievalError
	require.True(t, errors.As(err, &retrieval))
	require.Equal(t, http.StatusNotFound, retrieval.Status)
}

func TestUnzipEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Unzip(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}
