package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre          string          `json:"nombre"           validate:"required"`
	Descripcion     *string         `json:"descripcion"`
	CategoriaCodigo string          `json:"categoria_codigo" validate:"required,len=2,number"`
	Estante         string          `json:"estante"          validate:"required,len=2,alphanum"`
	Cantidad        decimal.Decimal `json:"cantidad"         validate:"min=0"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"  validate:"min=0"`
	StockMinimo     decimal.Decimal `json:"stock_minimo"     validate:"min=0"`
	TipoUnidad      string          `json:"tipo_unidad"      validate:"required,oneof=contable medible"`
	NombreUnidad    string          `json:"nombre_unidad"    validate:"required"`
	ProveedorID     *string         `json:"proveedor_id"     validate:"omitempty,uuid"`
}

type ActualizarProductoRequest struct {
	Nombre         *string          `json:"nombre"`
	Descripcion    *string          `json:"descripcion"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario" validate:"omitempty,min=0"`
	StockMinimo    *decimal.Decimal `json:"stock_minimo"    validate:"omitempty,min=0"`
	VentasDiarias  *decimal.Decimal `json:"ventas_diarias"  validate:"omitempty,min=0"`
	NombreUnidad   *string          `json:"nombre_unidad"`
	ProveedorID    *string          `json:"proveedor_id"    validate:"omitempty,uuid"`
}

// AjustarStockRequest increments stock by Cantidad (new merchandise).
// Sale-driven decrements never go through this path.
type AjustarStockRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"required,gt=0"`
	Motivo   string          `json:"motivo"   validate:"required,min=3"`
}

type ProductoFilter struct {
	Nombre      string `form:"nombre"`
	Categoria   string `form:"categoria"`
	ProveedorID string `form:"proveedor_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID              string          `json:"id"`
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	Descripcion     *string         `json:"descripcion,omitempty"`
	Categoria       string          `json:"categoria"`
	CategoriaCodigo string          `json:"categoria_codigo"`
	Estante         string          `json:"estante"`
	Cantidad        decimal.Decimal `json:"cantidad"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"`
	StockMinimo     decimal.Decimal `json:"stock_minimo"`
	VentasDiarias   decimal.Decimal `json:"ventas_diarias"`
	TipoUnidad      string          `json:"tipo_unidad"`
	NombreUnidad    string          `json:"nombre_unidad"`
	ProveedorID     *string         `json:"proveedor_id,omitempty"`
	UpdatedAt       string          `json:"updated_at"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// AlertaStockResponse flags a product at or below its reorder threshold.
// DiasDeStock is Cantidad / VentasDiarias; nil when there is no sales history.
type AlertaStockResponse struct {
	ProductoID  string           `json:"producto_id"`
	Codigo      string           `json:"codigo"`
	Nombre      string           `json:"nombre"`
	Cantidad    decimal.Decimal  `json:"cantidad"`
	StockMinimo decimal.Decimal  `json:"stock_minimo"`
	DiasDeStock *decimal.Decimal `json:"dias_de_stock,omitempty"`
}

type MovimientoStockResponse struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	Tipo          string          `json:"tipo"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	StockAnterior decimal.Decimal `json:"stock_anterior"`
	StockNuevo    decimal.Decimal `json:"stock_nuevo"`
	Motivo        string          `json:"motivo"`
	ReferenciaID  *string         `json:"referencia_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// ConsultaPreciosResponse is the public price-check payload (read-only, cached).
type ConsultaPreciosResponse struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"`
	StockDisponible decimal.Decimal `json:"stock_disponible"`
	Categoria       string          `json:"categoria"`
	NombreUnidad    string          `json:"nombre_unidad"`
}
