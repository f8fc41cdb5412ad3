package entity

import "time"

// Client cliente de la sucursal (facturación).
type Client struct {
	ID           string
	Name         string
	TaxID        string // CUIT / DNI
	TaxCondition TaxCondition
	Email        string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FinalConsumer cliente genérico usado cuando la venta no tiene cliente asignado.
func FinalConsumer() *Client {
	return &Client{
		Name:         "Consumidor Final",
		TaxCondition: TaxConditionFinal,
	}
}
