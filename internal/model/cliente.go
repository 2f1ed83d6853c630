package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a registered customer. Sales reference clients by id but keep a
// denormalized name snapshot, so deleting a Cliente never touches history.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Telefono  *string
	Email     *string
	Direccion *string
	RUC       *string `gorm:"column:ruc"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
