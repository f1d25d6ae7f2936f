// Package events 借阅事件发布
//
// 事件在数据库事务提交后发布到RabbitMQ，属于尽力而为：
// Broker故障时由熔断器快速失败，调用方只记录日志。
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
)

// Sender 消息发送（由*mq.Publisher实现）
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// AMQPPublisher 通过RabbitMQ发布借阅事件
type AMQPPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewAMQPPublisher 创建事件发布者
// timeout为一次Publish调用整批事件（含Broker确认）的总时限
func NewAMQPPublisher(sender Sender, breaker *circuitbreaker.CircuitBreaker, timeout time.Duration) *AMQPPublisher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AMQPPublisher{sender: sender, breaker: breaker, timeout: timeout}
}

var _ loan.EventPublisher = (*AMQPPublisher)(nil)

// Publish 在同一个截止时间内逐条发布事件
// 熔断打开后剩余事件被拒绝；截止时间到达后剩余事件不再发送。返回所有失败的合并错误
func (p *AMQPPublisher) Publish(ctx context.Context, evts ...loan.Event) error {
	batchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	deadline, _ := batchCtx.Deadline()

	var errs []error
	for i, e := range evts {
		if err := batchCtx.Err(); err != nil {
			for _, rest := range evts[i:] {
				metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
					"routing_key": rest.Type,
					"result":      "timeout",
				})
			}
			errs = append(errs, fmt.Errorf("%d条事件未发布: %w", len(evts)-i, err))
			break
		}

		// 熔断器看到的是调用方的ctx:Broker超时计为失败,调用方取消不计
		err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
			ctx, cancel := context.WithDeadline(ctx, deadline)
			defer cancel()
			return p.sender.Publish(ctx, e.Type, e)
		})

		result := "success"
		switch {
		case errors.Is(err, circuitbreaker.ErrOpenState):
			result = "rejected"
		case err != nil:
			result = "failure"
		}
		metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
			"routing_key": e.Type,
			"result":      result,
		})
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{
			"name":   p.breaker.Name(),
			"result": result,
		})

		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopPublisher 未启用消息队列时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(ctx context.Context, evts ...loan.Event) error {
	for _, e := range evts {
		slog.DebugContext(ctx, "消息队列未启用，丢弃事件", "type", e.Type, "loan_id", e.LoanID)
	}
	return nil
}

// BreakerStateRecorder 熔断器状态变化时更新指标并记录日志
func BreakerStateRecorder(name string, from, to circuitbreaker.State) {
	metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	slog.Warn("熔断器状态变化", "name", name, "from", from.String(), "to", to.String())
}
