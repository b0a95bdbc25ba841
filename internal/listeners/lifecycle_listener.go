package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"safety-tracker/internal/events"
	"safety-tracker/pkg/eventbus"
)

// LifecycleListener пишет по строке лога на каждый переход заявки.
// Других следов переходов, кроме временных меток в записях, система не хранит.
type LifecycleListener struct {
	logger *zap.Logger
}

func NewLifecycleListener(logger *zap.Logger) *LifecycleListener {
	return &LifecycleListener{logger: logger.Named("lifecycle")}
}

func (l *LifecycleListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.IssueResolvedEventName, l.handleResolved)
	bus.Subscribe(events.IssueReopenedEventName, l.handleReopened)
	l.logger.Info("LifecycleListener подписан на события заявок")
}

func (l *LifecycleListener) handleResolved(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.IssueResolvedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}
	fields := []zap.Field{
		zap.Uint64("issueID", e.IssueID),
		zap.Uint64("equipmentID", e.EquipmentID),
		zap.Time("at", e.ResolvedAt),
	}
	if e.PreviousEmployeeID != nil {
		fields = append(fields, zap.Uint64("unassignedFrom", *e.PreviousEmployeeID))
	}
	l.logger.Info("заявка решена, оборудование списано", fields...)
	return nil
}

func (l *LifecycleListener) handleReopened(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.IssueReopenedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}
	l.logger.Info("заявка переоткрыта, оборудование снова в работе",
		zap.Uint64("issueID", e.IssueID),
		zap.Uint64("equipmentID", e.EquipmentID),
		zap.Time("at", e.ReopenedAt),
	)
	return nil
}
