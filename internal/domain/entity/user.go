package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCashier    = "cajero"
)

// User usuario que opera una caja en una sucursal.
type User struct {
	ID           string
	BranchID     string
	PointOfSale  int    // punto de venta AFIP asignado a la caja
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
