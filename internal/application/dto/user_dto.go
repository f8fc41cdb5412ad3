package dto

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string `json:"id"`
	BranchID    string `json:"branch_id"`
	PointOfSale int    `json:"pos_number"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// LoginRequest entrada para login del cajero.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
