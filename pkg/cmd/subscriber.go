package cmd

import (
	"context"
	"log/slog"

	"github.com/prodflow/prodflow/pkg/eventbus"
	"github.com/prodflow/prodflow/pkg/events"
)

// executionEvent is the common shape of decoded lifecycle events.
type executionEvent interface {
	GetType() events.EventType
	GetWorkflowID() string
	GetExecutionID() string
}

// SubscribeLifecycleLogging registers an audit-log handler for every
// execution lifecycle event and starts consuming the topic. Binaries use it
// to get lifecycle visibility without running a dedicated consumer process.
func SubscribeLifecycleLogging(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	lifecycleEvents := []events.EventType{
		events.ExecutionStartedEvent,
		events.ExecutionCompletedEvent,
		events.ExecutionFailedEvent,
		events.ExecutionPausedEvent,
		events.ExecutionResumedEvent,
	}

	for _, eventType := range lifecycleEvents {
		if err := bus.Handle(eventType, logLifecycleEvent(logger)); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}

func logLifecycleEvent(logger *slog.Logger) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		evt, ok := event.(executionEvent)
		if !ok {
			return nil
		}

		logger.InfoContext(ctx, "Execution lifecycle event",
			"type", evt.GetType(),
			"workflow_id", evt.GetWorkflowID(),
			"execution_id", evt.GetExecutionID(),
		)

		return nil
	}
}
