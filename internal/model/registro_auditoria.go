package model

import (
	"time"

	"github.com/google/uuid"
)

// Acciones de auditoría emitidas por los servicios.
const (
	AccionCrearVenta        = "CREATE_SALE"
	AccionEliminarVenta     = "DELETE_SALE"
	AccionActualizarVenta   = "UPDATE_SALE_DETAILS"
	AccionCrearProducto     = "CREATE_PRODUCT"
	AccionEliminarProducto  = "DELETE_PRODUCT"
	AccionAjustarStock      = "ADJUST_STOCK"
	AccionCrearCliente      = "CREATE_CUSTOMER"
	AccionActualizarCliente = "UPDATE_CUSTOMER"
	AccionEliminarCliente   = "DELETE_CUSTOMER"
)

// RegistroAuditoria is an append-only record of who did what. Detalles holds a
// free-form JSON payload whose shape varies per action. Entries are never
// updated or deleted.
type RegistroAuditoria struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioNombre string    `gorm:"not null"`
	UsuarioRol    string    `gorm:"type:varchar(20);not null"`
	Accion        string    `gorm:"type:varchar(40);not null;index"`
	Detalles      string    `gorm:"type:jsonb;not null;default:'null'"`
	CreatedAt     time.Time `gorm:"index"`
}

func (RegistroAuditoria) TableName() string { return "registros_auditoria" }
