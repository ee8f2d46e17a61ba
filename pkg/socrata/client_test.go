package socrata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/erm2-nwe9.csv", r.URL.Path)
		assert.Equal(t, "tok-123", r.Header.Get("X-App-Token"))

		q := r.URL.Query()
		assert.Contains(t, q.Get("$where"), "created_date >= '2019-01-01")
		assert.Equal(t, "1000", q.Get("$limit"))
		assert.Equal(t, "2000", q.Get("$offset"))
		assert.Equal(t, ":id", q.Get("$order"))

		io.WriteString(w, "unique_key,complaint_type\n1,Street Flooding\n")
	}))
	defer srv.Close()

	c := New(srv.URL, WithAppToken("tok-123"))
	body, err := c.ExportCSV(context.Background(), "erm2-nwe9", YearWhere(2019), 1000, 2000)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Street Flooding")
}

func TestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/erm2-nwe9.json", r.URL.Path)
		io.WriteString(w, `[{"count":"2474958"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	n, err := c.Count(context.Background(), "erm2-nwe9", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2474958), n)
}

func TestCount_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Count(context.Background(), "erm2-nwe9", "")
	assert.Error(t, err)
}

func TestYearWhere(t *testing.T) {
	where := YearWhere(2019)
	assert.Equal(t, "created_date >= '2019-01-01T00:00:00' AND created_date < '2020-01-01T00:00:00'", where)
}
