package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/pkg/circuitbreaker"
)

// BookRoutingKeys 订阅全部图书事件
var BookRoutingKeys = []string{"book.*"}

// publisher 由mq.Publisher实现
type publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// BookEventPublisher 通过RabbitMQ发布图书事件
// routing key即事件类型（book.created / book.updated / book.deleted）
// 配置了熔断器时，RabbitMQ连续失败后直接返回circuitbreaker.ErrOpenState
type BookEventPublisher struct {
	pub     publisher
	breaker *circuitbreaker.CircuitBreaker
}

// NewBookEventPublisher 创建图书事件发布者，breaker可以为nil
func NewBookEventPublisher(pub publisher, breaker *circuitbreaker.CircuitBreaker) *BookEventPublisher {
	return &BookEventPublisher{pub: pub, breaker: breaker}
}

// Publish 实现book.EventPublisher
func (p *BookEventPublisher) Publish(ctx context.Context, event book.Event) error {
	publish := func() error {
		return p.pub.Publish(ctx, string(event.Type), event)
	}
	if p.breaker == nil {
		return publish()
	}
	return p.breaker.Execute(publish)
}

// DecodeBookEvent 解析消息体为图书事件
func DecodeBookEvent(routingKey string, body []byte) (book.Event, error) {
	var event book.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return book.Event{}, fmt.Errorf("解析图书事件失败(routing_key=%s): %w", routingKey, err)
	}
	if event.Type == "" {
		event.Type = book.EventType(routingKey)
	}
	return event, nil
}
