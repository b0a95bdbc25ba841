package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type RaiseIssueDTO struct {
	Description string `json:"description"`
}

type IssueDTO struct {
	ID            uint64            `json:"id"`
	EquipmentID   uint64            `json:"equipment_id"`
	EquipmentName string            `json:"equipment_name"`
	Description   string            `json:"description"`
	RaisedOn      time.Time         `json:"raised_on"`
	RaisedBy      *ShortEmployeeDTO `json:"raised_by"`
	IsResolved    bool              `json:"is_resolved"`
	ResolvedOn    null.Time         `json:"resolved_on"`
}

// ResolveIssueResultDTO - итог переключения: заявка, оборудование и переход.
type ResolveIssueResultDTO struct {
	Transition string        `json:"transition"`
	Issue      IssueDTO      `json:"issue"`
	Equipment  *EquipmentDTO `json:"equipment"`
}
