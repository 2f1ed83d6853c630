package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is one stocked product of the ferretería.
// Codigo has the form CC-SS-NNNNN: 2-digit category code, 2-char shelf code
// (upper-cased), 5-digit sequence unique within the CC-SS pair.
// Cantidad is decimal because "medible" products (cable, cadena, pintura)
// sell in fractional units; "contable" products always carry whole numbers.
type Producto struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo          string    `gorm:"uniqueIndex;not null"`
	Nombre          string    `gorm:"index;not null"`
	Descripcion     *string
	Categoria       string `gorm:"not null"`
	CategoriaCodigo string `gorm:"type:char(2);not null;index:idx_productos_ubicacion"`
	Estante         string `gorm:"type:char(2);not null;index:idx_productos_ubicacion"`
	// Cantidad never goes negative: sale decrements are conditional on
	// sufficient stock and the whole transaction aborts otherwise.
	Cantidad       decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockMinimo    decimal.Decimal `gorm:"type:decimal(14,3);not null;default:5"`
	// VentasDiarias is a rolling daily-sales average used for reorder alerts.
	VentasDiarias decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	// TipoUnidad: "contable" | "medible"
	TipoUnidad   string     `gorm:"type:varchar(10);not null;default:'contable'"`
	NombreUnidad string     `gorm:"not null;default:'unidad'"`
	ProveedorID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Proveedor *Proveedor `gorm:"foreignKey:ProveedorID"`
}

func (Producto) TableName() string { return "productos" }
