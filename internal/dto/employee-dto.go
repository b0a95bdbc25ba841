package dto

type CreateEmployeeDTO struct {
	EmployeeCode string `json:"employee_code" validate:"notblank,max=50"`
	Name         string `json:"name" validate:"notblank,max=120"`
}

type ShortEmployeeDTO struct {
	ID           uint64 `json:"id"`
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
}

type EmployeeDTO struct {
	ID           uint64 `json:"id"`
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
	// ActiveEquipment - названия закреплённого оборудования в эксплуатации.
	ActiveEquipment []string `json:"active_equipment"`
}

type EmployeeDetailDTO struct {
	EmployeeDTO
	Equipment []EquipmentDTO `json:"equipment"`
}
