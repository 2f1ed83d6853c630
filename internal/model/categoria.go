package model

import (
	"time"

	"github.com/google/uuid"
)

// Categoria classifies products. Codigo is the 2-digit prefix used when
// allocating product codes (CC-SS-NNNNN).
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"type:char(2);uniqueIndex;not null"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Categoria) TableName() string { return "categorias" }
