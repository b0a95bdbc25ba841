package entities

type Employee struct {
	ID           uint64 `json:"id" db:"id"`
	EmployeeCode string `json:"employee_code" db:"employee_code"`
	Name         string `json:"name" db:"name"`
}
