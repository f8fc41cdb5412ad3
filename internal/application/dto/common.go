package dto

// ErrorResponse cuerpo de error HTTP. Code es estable para el cliente de caja.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
