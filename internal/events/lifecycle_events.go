package events

import "time"

const (
	IssueResolvedEventName = "issue.resolved"
	IssueReopenedEventName = "issue.reopened"
)

// IssueResolvedEvent - заявка решена, оборудование списано и снято с сотрудника.
type IssueResolvedEvent struct {
	IssueID            uint64
	EquipmentID        uint64
	PreviousEmployeeID *uint64
	ResolvedAt         time.Time
}

func (e IssueResolvedEvent) Name() string { return IssueResolvedEventName }

// IssueReopenedEvent - заявка снова открыта, оборудование возвращено в работу.
type IssueReopenedEvent struct {
	IssueID     uint64
	EquipmentID uint64
	ReopenedAt  time.Time
}

func (e IssueReopenedEvent) Name() string { return IssueReopenedEventName }
