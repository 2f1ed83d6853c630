package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemVentaRequest is one sale line as submitted by the POS client.
// PrecioUnitario is the price shown to the user at submission time; the sale
// snapshots it instead of re-reading the current product price, so a price
// edit racing the sale cannot change a total the customer already saw.
type ItemVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       decimal.Decimal `json:"cantidad"        validate:"required,gt=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
}

type CrearVentaRequest struct {
	// ClienteID absent = venta a "Consumidor Final" (walk-in)
	ClienteID  *string            `json:"cliente_id"  validate:"omitempty,uuid"`
	Items      []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	MetodoPago string             `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta"`
	// EmailRecibo: optional — when present, the recibo worker mails the PDF.
	EmailRecibo *string `json:"email_recibo" validate:"omitempty,email"`
}

// ActualizarVentaRequest mutates sale metadata only. The two customer intents
// are explicit and distinct: ClienteID set = reassign customer, QuitarCliente
// = clear to walk-in, neither = leave the customer untouched.
type ActualizarVentaRequest struct {
	ClienteID     *string `json:"cliente_id"     validate:"omitempty,uuid"`
	QuitarCliente bool    `json:"quitar_cliente"`
	MetodoPago    *string `json:"metodo_pago"    validate:"omitempty,oneof=efectivo tarjeta"`
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha string `form:"fecha"` // YYYY-MM-DD; empty = all
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Codigo         string          `json:"codigo"`
	Producto       string          `json:"producto"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID          string `json:"id"`
	NumeroVenta string `json:"numero_venta"`
	Fecha       string `json:"fecha"`
	// ClienteID/ClienteNombre omitted entirely for walk-in sales
	ClienteID      *string             `json:"cliente_id,omitempty"`
	ClienteNombre  *string             `json:"cliente_nombre,omitempty"`
	Items          []ItemVentaResponse `json:"items"`
	Total          decimal.Decimal     `json:"total"`
	MetodoPago     string              `json:"metodo_pago"`
	UsuarioID      string              `json:"usuario_id"`
	VendedorNombre string              `json:"vendedor_nombre"`
}
