package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vendor-management-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	var seen string
	h := RequestIDMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		logger.FromContext(r.Context()).Info("inside")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated request id is a uuid")
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("inside").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, seen, entries[0].ContextMap()["request_id"])
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	h := RequestIDMiddleware(zap.New(core))(AccessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/vendors", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("request completed").All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, int64(http.StatusCreated), entries[0].ContextMap()["status"])
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, "/boom", entries[1].ContextMap()["path"])
	}
}
