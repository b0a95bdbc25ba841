package services

import (
	"time"

	"github.com/aarondl/null/v8"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/lifecycle"
)

// Clock - источник текущего времени; в тестах подменяется.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// expiryView считает статус срока годности относительно одного "сегодня" на весь ответ.
type expiryView struct {
	today     time.Time
	threshold int
}

func (v expiryView) equipment(eq entities.Equipment) dto.EquipmentDTO {
	out := dto.EquipmentDTO{
		ID:         eq.ID,
		Name:       eq.Name,
		ExpiryDate: eq.ExpiryDate.Format(lifecycle.DateLayout),
		DaysLeft:   lifecycle.DaysLeft(eq.ExpiryDate, v.today),
		Status:     string(lifecycle.Classify(eq.ExpiryDate, v.today, v.threshold)),
		IsRetired:  eq.IsRetired,
		RetiredOn:  null.TimeFromPtr(eq.RetiredOn),
	}
	if eq.Employee != nil {
		out.AssignedTo = shortEmployee(eq.Employee)
	} else if eq.EmployeeID != nil {
		out.AssignedTo = &dto.ShortEmployeeDTO{ID: *eq.EmployeeID}
	}
	return out
}

func (v expiryView) equipmentList(list []entities.Equipment) []dto.EquipmentDTO {
	out := make([]dto.EquipmentDTO, 0, len(list))
	for _, eq := range list {
		out = append(out, v.equipment(eq))
	}
	return out
}

func (v expiryView) isNear(eq entities.Equipment) bool {
	return lifecycle.Classify(eq.ExpiryDate, v.today, v.threshold) == lifecycle.StatusNearExpiry
}

func shortEmployee(e *entities.Employee) *dto.ShortEmployeeDTO {
	if e == nil {
		return nil
	}
	return &dto.ShortEmployeeDTO{ID: e.ID, EmployeeCode: e.EmployeeCode, Name: e.Name}
}

func issueDTO(item entities.IssueListItem) dto.IssueDTO {
	return dto.IssueDTO{
		ID:            item.ID,
		EquipmentID:   item.EquipmentID,
		EquipmentName: item.EquipmentName,
		Description:   item.Description,
		RaisedOn:      item.RaisedOn,
		RaisedBy:      shortEmployee(item.RaisedBy),
		IsResolved:    item.IsResolved,
		ResolvedOn:    null.TimeFromPtr(item.ResolvedOn),
	}
}

func issueList(items []entities.IssueListItem) []dto.IssueDTO {
	out := make([]dto.IssueDTO, 0, len(items))
	for _, item := range items {
		out = append(out, issueDTO(item))
	}
	return out
}

// PrincipalDTO - проекция Principal для ответа клиенту.
func PrincipalDTO(p entities.Principal) dto.PrincipalDTO {
	out := dto.PrincipalDTO{Kind: string(p.Kind())}
	if id, ok := p.EmployeeID(); ok {
		out.EmployeeID = null.Uint64From(id)
		out.EmployeeCode = null.StringFrom(p.EmployeeCode())
		out.Name = null.StringFrom(p.Name())
	}
	return out
}

func (v expiryView) withToday(today time.Time) expiryView {
	v.today = today
	return v
}
