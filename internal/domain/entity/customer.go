package entity

import "time"

// Customer representa un cliente del negocio.
// Se crea de forma incremental; los campos obligatorios para vender se validan al vender.
type Customer struct {
	ID                string
	BusinessID        string
	Name              string
	PrimaryDocumentID string // RFC, cédula o NIT
	Phone             string
	Email             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
