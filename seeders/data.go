package seeders

var employeesData = []struct {
	Code string
	Name string
}{
	{Code: "E1001", Name: "Chinmoy Das"},
	{Code: "E1002", Name: "Harsha Das"},
	{Code: "E1003", Name: "Koustav Patowary"},
}

// Срок годности задаётся смещением в днях от даты запуска сидера.
var equipmentData = []struct {
	Name          string
	ExpiresInDays int
}{
	{Name: "Safety Helmet", ExpiresInDays: 10},
	{Name: "Fire Extinguisher CO₂", ExpiresInDays: 3},
	{Name: "Safety Harness", ExpiresInDays: 90},
}
