package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLoggerKeepsExistingLogger(t *testing.T) {
	ctx, first := ContextWithLogger(context.Background(), "req-1")
	assert.Equal(t, "req-1", first.Data[requestIDLoggerKey])

	same, second := ContextWithLogger(ctx, "req-2")
	assert.Equal(t, ctx, same)
	assert.Equal(t, first, second)
}

func TestContextWithLoggerGeneratesRequestID(t *testing.T) {
	_, rlog := ContextWithLogger(context.Background(), "")
	id, ok := rlog.Data[requestIDLoggerKey].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestWithIdentity(t *testing.T) {
	ctx, _ := ContextWithLogger(context.Background(), "req-1")
	ctx = WithIdentity(ctx, "usr_1")

	rlog := FromContext(ctx)
	assert.Equal(t, "req-1", rlog.Data[requestIDLoggerKey])
	assert.Equal(t, "usr_1", rlog.Data[identityLoggerKey])
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	Init(logrus.ErrorLevel.String())

	var seen *logrus.Entry
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = loggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/restaurants", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.NotNil(t, seen)
	assert.NotEmpty(t, seen.Data[requestIDLoggerKey])
}
