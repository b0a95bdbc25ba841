package entities

import "time"

type Equipment struct {
	ID         uint64     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	ExpiryDate time.Time  `json:"expiry_date" db:"expiry_date"` // только дата, время всегда 00:00 UTC
	EmployeeID *uint64    `json:"employee_id" db:"employee_id"`
	IsRetired  bool       `json:"is_retired" db:"is_retired"`
	RetiredOn  *time.Time `json:"retired_on" db:"retired_on"`

	// Заполняется только в списочных выборках (LEFT JOIN employee)
	Employee *Employee `db:"-"`
}

// IsActive - оборудование можно назначать и на него можно заводить заявки.
func (e *Equipment) IsActive() bool {
	return !e.IsRetired
}
