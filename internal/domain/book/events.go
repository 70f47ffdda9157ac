package book

import (
	"context"
	"time"
)

// EventType 图书事件类型(同时作为消息队列的routing key)
type EventType string

const (
	EventCreated EventType = "book.created"
	EventUpdated EventType = "book.updated"
	EventDeleted EventType = "book.deleted"
)

// Event 图书变更事件
type Event struct {
	Type          EventType `json:"type"`
	BookID        uint      `json:"book_id"`
	Title         string    `json:"title,omitempty"`
	Author        string    `json:"author,omitempty"`
	PublishedYear *int      `json:"published_year,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent 由图书快照构造事件
func NewEvent(t EventType, b *Book) Event {
	e := Event{Type: t, OccurredAt: time.Now().UTC()}
	if b != nil {
		e.BookID = b.ID
		e.Title = b.Title
		e.Author = b.Author
		e.PublishedYear = copyInt(b.PublishedYear)
	}
	return e
}

// EventPublisher 事件发布接口
// 由infrastructure层实现(RabbitMQ),未启用时使用NopPublisher
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 不发送任何事件
type NopPublisher struct{}

// Publish 实现EventPublisher
func (NopPublisher) Publish(context.Context, Event) error { return nil }
