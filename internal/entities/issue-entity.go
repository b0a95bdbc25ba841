package entities

import "time"

type Issue struct {
	ID                 uint64     `json:"id" db:"id"`
	EquipmentID        uint64     `json:"equipment_id" db:"equipment_id"`
	Description        string     `json:"description" db:"description"`
	RaisedOn           time.Time  `json:"raised_on" db:"raised_on"`
	RaisedByEmployeeID *uint64    `json:"raised_by_employee_id" db:"raised_by_employee_id"`
	IsResolved         bool       `json:"is_resolved" db:"is_resolved"`
	ResolvedOn         *time.Time `json:"resolved_on" db:"resolved_on"`
}

// IssueListItem - строка списка заявок для администратора.
type IssueListItem struct {
	Issue
	EquipmentName string
	RaisedBy      *Employee
}
