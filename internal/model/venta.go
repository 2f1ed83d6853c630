package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta is an immutable record of one completed sale. Only ClienteID,
// ClienteNombre and MetodoPago may change after creation; items and total are
// frozen at commit time.
//
// NumeroVenta is the human-visible correlative ("V00001", "V00042"): derived
// from the highest committed number inside the same transaction as the insert,
// so two concurrent sales can never share a number — the unique index turns a
// collision into a transaction abort that the service retries.
type Venta struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroVenta string    `gorm:"uniqueIndex:uni_ventas_numero_venta;not null"`
	Fecha       time.Time `gorm:"not null;index"`
	// ClienteID/ClienteNombre are both nil for a walk-in sale ("Consumidor
	// Final") — never empty strings.
	ClienteID     *uuid.UUID `gorm:"type:uuid;index"`
	ClienteNombre *string
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MetodoPago: "efectivo" | "tarjeta"
	MetodoPago string    `gorm:"type:varchar(20);not null"`
	UsuarioID  uuid.UUID `gorm:"type:uuid;not null"`
	// VendedorNombre is resolved server-side from UsuarioID at commit time,
	// never taken from the request.
	VendedorNombre string `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

func (Venta) TableName() string { return "ventas" }

// VentaItem is one line of a sale. Codigo/Nombre/PrecioUnitario are snapshots
// taken when the sale was registered: later edits or deletion of the Producto
// must not alter historical sale lines, so ProductoID is a plain reference
// without a foreign key constraint.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CodigoProducto string          `gorm:"not null"`
	NombreProducto string          `gorm:"not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Subtotal == Cantidad × PrecioUnitario, computed once at creation.
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (VentaItem) TableName() string { return "venta_items" }
