package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSegreteria = "segreteria"
)

// Estados de cuenta.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User usuario del estudio (profesional o secretaría).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, segreteria
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
