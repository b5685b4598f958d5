package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("||ads.example.com^\n"))
	}))
	defer srv.Close()

	f := New(models.HTTPConfig{UserAgent: "test-agent"})
	data, err := f.Fetch(context.Background(), srv.URL+"/list.txt")
	require.NoError(t, err)
	assert.Equal(t, "||ads.example.com^\n", string(data))
	assert.Equal(t, "test-agent", gotUA)
}

func TestFetchRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("##.ad\n"))
	}))
	defer srv.Close()

	f := New(models.HTTPConfig{Retries: 2}, WithBackoff(time.Millisecond))
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "##.ad\n", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchFailsAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(models.HTTPConfig{Retries: 2}, WithBackoff(time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchWithoutRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(models.HTTPConfig{Retries: 0}, WithBackoff(time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := New(models.HTTPConfig{Retries: 1}, WithBackoff(time.Millisecond))
	_, err := f.Fetch(context.Background(), addr+"/list.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
	assert.NotErrorIs(t, err, models.ErrInvalidURL)
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("||ads.example.com^\n"))
	}))
	defer srv.Close()

	f := New(models.HTTPConfig{}, WithBackoff(time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(models.HTTPConfig{Retries: 5}, WithBackoff(time.Hour))
	_, err := f.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchLocal(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/lists/custom.txt", []byte("||local.test^\n"), 0o644))

	f := New(models.HTTPConfig{}, WithFs(fs))

	data, err := f.Fetch(context.Background(), "/lists/custom.txt")
	require.NoError(t, err)
	assert.Equal(t, "||local.test^\n", string(data))

	data, err = f.Fetch(context.Background(), "file:///lists/custom.txt")
	require.NoError(t, err)
	assert.Equal(t, "||local.test^\n", string(data))

	_, err = f.Fetch(context.Background(), "/lists/missing.txt")
	assert.ErrorIs(t, err, models.ErrInvalidURL)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(context.Background(), "file:///lists/missing.txt")
	assert.ErrorIs(t, err, models.ErrInvalidURL)
}

func TestFetchInvalidSource(t *testing.T) {
	f := New(models.HTTPConfig{})
	for _, src := range []string{"", "ftp://example.com/list.txt", "https:///list.txt"} {
		_, err := f.Fetch(context.Background(), src)
		assert.ErrorIs(t, err, models.ErrInvalidURL, src)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{name: "plain utf-8", input: []byte("##.ad\n"), want: "##.ad\n"},
		{name: "utf-8 bom", input: append([]byte{0xEF, 0xBB, 0xBF}, "##.ad"...), want: "##.ad"},
		{name: "utf-16 le", input: []byte{0xFF, 0xFE, '#', 0, '#', 0, 'a', 0}, want: "##a"},
		{name: "utf-16 be", input: []byte{0xFE, 0xFF, 0, '#', 0, '#', 0, 'a'}, want: "##a"},
		{name: "invalid utf-8", input: []byte{'#', '#', 0xC3, 0x28}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("  <!DOCTYPE html><html><body>Login</body></html>"))
	assert.True(t, LooksLikeHTML("<html>"))
	assert.False(t, LooksLikeHTML("[Adblock Plus 2.0]\n! <html> in a comment"))
}
