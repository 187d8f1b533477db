//go:build integration

package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"vendor-management-api/internal"
	"vendor-management-api/internal/config"
	"vendor-management-api/internal/performance"
	"vendor-management-api/internal/store"
	"vendor-management-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

var (
	testDB     *sql.DB
	testStore  *store.Store
	testServer *internal.Server
)

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") != "1" {
		os.Exit(0)
	}

	t := &testing.T{}
	testDB = testutil.NewTestDB(t)
	testutil.ResetSchema(t, testDB)

	testStore = store.New(testDB, performance.NewRecalculator(nil))

	cfg := &config.Config{
		Addr:        ":0",
		Environment: "test",
		LogLevel:    "error",
	}
	var err error
	testServer, err = internal.NewServer(testStore, cfg, nil, nil)
	if err != nil {
		panic(err)
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func setup(t *testing.T) context.Context {
	t.Helper()
	testutil.RequireIntegration(t)
	testutil.Truncate(t, testDB)
	return context.Background()
}

func makeRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	testServer.Router.ServeHTTP(w, req)
	return w
}

func ptr[T any](v T) *T { return &v }

func day(n int) time.Time {
	return time.Date(2024, 5, n, 12, 0, 0, 0, time.UTC)
}
