package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentDTO struct {
	Name       string `json:"name" validate:"notblank,max=200"`
	ExpiryDate string `json:"expiry_date" validate:"required,dateonly"`
}

type AssignEquipmentDTO struct {
	EmployeeID uint64 `json:"employee_id" validate:"required,gt=0"`
}

type EquipmentDTO struct {
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	ExpiryDate string            `json:"expiry_date"`
	DaysLeft   int               `json:"days_left"`
	Status     string            `json:"status"`
	IsRetired  bool              `json:"is_retired"`
	RetiredOn  null.Time         `json:"retired_on"`
	AssignedTo *ShortEmployeeDTO `json:"assigned_to"`
}

type EquipmentDetailDTO struct {
	EquipmentDTO
	Issues []IssueDTO `json:"issues"`
}
