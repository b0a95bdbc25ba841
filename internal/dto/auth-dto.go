package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type EmployeeLoginDTO struct {
	EmployeeCode string `json:"employee_code" validate:"notblank,max=50"`
}

type AdminLoginDTO struct {
	PIN string `json:"pin" validate:"required,max=64"`
}

// PrincipalDTO - кто выполняет запрос. Поля сотрудника null для админа и анонима.
type PrincipalDTO struct {
	Kind         string      `json:"kind"`
	EmployeeID   null.Uint64 `json:"employee_id"`
	EmployeeCode null.String `json:"employee_code"`
	Name         null.String `json:"name"`
}

type LoginResponseDTO struct {
	Principal PrincipalDTO `json:"principal"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`

	// Срок для cookie сессии
	Expires time.Time `json:"-"`
}

// RootDTO - куда клиенту идти с корня.
type RootDTO struct {
	Principal PrincipalDTO `json:"principal"`
	Location  string       `json:"location"`
}
