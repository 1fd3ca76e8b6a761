package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoriesCSV(n int) string {
	var b strings.Builder
	b.WriteString("name\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Category %04d\n", i)
	}
	return b.String()
}

func seedCategories(t *testing.T, h http.Handler, n int) {
	t.Helper()
	rec := do(t, h, uploadRequest(t, "/categories/import_csv", "file", "categories.csv", categoriesCSV(n)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestImportOutlivesRequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestTimeout = time.Nanosecond
	h := newTestServer(t, cfg)

	seedCategories(t, h, 3)

	// Routes under the request timeout still give up.
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/categories/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/categories/export_csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,name\n1,Category 0001\n2,Category 0002\n3,Category 0003\n", rec.Body.String())
}

func TestExportCSV_OutlivesRequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestTimeout = time.Nanosecond
	cfg.Export.BatchSize = 1
	h := newTestServer(t, cfg)

	const rows = 500
	seedCategories(t, h, rows)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/categories/export_csv")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	assert.Len(t, lines, rows+1)
	assert.Equal(t, fmt.Sprintf("%d,Category %04d", rows, rows), lines[len(lines)-1])
}

// cancelAfterFlush cancels the request context once the handler has flushed
// the given number of times.
type cancelAfterFlush struct {
	http.ResponseWriter
	cancel  context.CancelFunc
	after   int
	flushes int
}

func (w *cancelAfterFlush) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
	w.flushes++
	if w.flushes == w.after {
		w.cancel()
	}
}

func TestExportCSV_StreamErrorAbortsResponse(t *testing.T) {
	cfg := testConfig()
	cfg.Export.BatchSize = 2
	h := newTestServer(t, cfg)
	seedCategories(t, h, 10)

	// Header flush, then one batch; the next batch read fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		h.ServeHTTP(&cancelAfterFlush{ResponseWriter: w, cancel: cancel, after: 2}, r.WithContext(ctx))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/categories/export_csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.Error(t, err, "a cut-short export must not end like a complete one")
	assert.True(t, strings.HasPrefix(string(body), "id,name\n1,Category 0001\n"), "body: %q", body)
	assert.NotContains(t, string(body), "Category 0010")
}
