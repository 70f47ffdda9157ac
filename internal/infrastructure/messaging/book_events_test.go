package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/pkg/circuitbreaker"
)

type recordingPublisher struct {
	key   string
	msg   any
	calls int
	err   error
}

func (r *recordingPublisher) Publish(_ context.Context, routingKey string, message any) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.key, r.msg = routingKey, message
	return nil
}

func TestBookEventPublisher_Publish(t *testing.T) {
	rec := &recordingPublisher{}
	var _ book.EventPublisher = NewBookEventPublisher(rec, nil)

	event := book.NewEvent(book.EventCreated, &book.Book{ID: 1, Title: "1984", Author: "George Orwell"})
	require.NoError(t, NewBookEventPublisher(rec, nil).Publish(context.Background(), event))

	assert.Equal(t, "book.created", rec.key)
	assert.Equal(t, event, rec.msg)
}

func TestBookEventPublisher_Breaker(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("connection refused")}
	breaker := circuitbreaker.NewCircuitBreaker("book-events", circuitbreaker.Config{
		Timeout:     time.Minute,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	pub := NewBookEventPublisher(rec, breaker)
	event := book.NewEvent(book.EventDeleted, &book.Book{ID: 9})

	assert.Error(t, pub.Publish(context.Background(), event))
	assert.Error(t, pub.Publish(context.Background(), event))

	// 熔断后不再访问RabbitMQ
	err := pub.Publish(context.Background(), event)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, 2, rec.calls)
}

func TestDecodeBookEvent(t *testing.T) {
	event := book.NewEvent(book.EventUpdated, &book.Book{ID: 3, Title: "Dune", Author: "Frank Herbert"})
	body, err := json.Marshal(event)
	require.NoError(t, err)

	got, err := DecodeBookEvent("book.updated", body)
	require.NoError(t, err)
	assert.Equal(t, book.EventUpdated, got.Type)
	assert.Equal(t, uint(3), got.BookID)
	assert.Equal(t, "Dune", got.Title)

	// 消息体缺少type时使用routing key
	got, err = DecodeBookEvent("book.deleted", []byte(`{"book_id":5}`))
	require.NoError(t, err)
	assert.Equal(t, book.EventDeleted, got.Type)

	_, err = DecodeBookEvent("book.created", []byte(`not-json`))
	assert.Error(t, err)
}
