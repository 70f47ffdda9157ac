package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booksapi/pkg/metrics"
	"github.com/xiebiao/booksapi/pkg/mq"
)

func TestAuditHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	m := metrics.New(prometheus.NewRegistry())
	handle := newAuditHandler(log, m)

	body := []byte(`{"type":"book.created","book_id":7,"title":"1984","author":"George Orwell","occurred_at":"2024-01-15T10:30:00Z"}`)
	require.NoError(t, handle(context.Background(), "book.created", body))
	assert.Contains(t, buf.String(), "book_id=7")
	assert.Contains(t, buf.String(), "title=1984")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsConsumedTotal.WithLabelValues("book.created", metrics.ResultSuccess)))

	err := handle(context.Background(), "book.updated", []byte(`{broken`))
	assert.ErrorIs(t, err, mq.ErrDiscard)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsConsumedTotal.WithLabelValues("book.updated", metrics.ResultError)))
}

func TestAuditHandler_WithoutMetrics(t *testing.T) {
	handle := newAuditHandler(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	assert.NoError(t, handle(context.Background(), "book.deleted", []byte(`{"book_id":3}`)))
}
