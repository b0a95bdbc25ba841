package dto

type AdminDashboardDTO struct {
	TotalEmployees  int64          `json:"total_employees"`
	ActiveEquipment int64          `json:"active_equipment"`
	OpenIssues      int64          `json:"open_issues"`
	NearExpiry      int64          `json:"near_expiry"`
	NearExpiryDays  int            `json:"near_expiry_days"`
	Equipment       []EquipmentDTO `json:"equipment"`
}

type EmployeeDashboardDTO struct {
	Employee       ShortEmployeeDTO `json:"employee"`
	NearExpiryDays int              `json:"near_expiry_days"`
	Equipment      []EquipmentDTO   `json:"equipment"`
	NearExpiry     []EquipmentDTO   `json:"near_expiry"`
}

type HealthDTO struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// ExportFileDTO - готовый файл выгрузки.
type ExportFileDTO struct {
	FileName    string
	ContentType string
	Content     []byte
}
