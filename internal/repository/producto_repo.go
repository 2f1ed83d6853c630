package repository

import (
	"context"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListarBajoStock(ctx context.Context) ([]model.Producto, error)

	// UltimoCodigoEnUbicacion returns the highest assigned product code for a
	// categoria+estante pair ("" when none exists yet). Zero padding makes the
	// lexical descending sort equivalent to a numeric one.
	UltimoCodigoEnUbicacion(ctx context.Context, categoriaCodigo, estante string) (string, error)

	// Used inside sale transactions — callers must pass the live tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)

	// DescontarStockTx issues the conditional decrement "cantidad = cantidad-N
	// where cantidad >= N". Returns false (no error) when the guard matched
	// nothing, i.e. a concurrent transaction consumed the stock first.
	DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error)

	// RestaurarStockTx increments stock unconditionally (sale deletion).
	// Returns false when the product no longer exists.
	RestaurarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error)

	// IncrementarStock adds new merchandise outside a sale transaction.
	IncrementarStock(ctx context.Context, id uuid.UUID, cantidad decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("codigo = ?", codigo).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ? OR categoria_codigo = ?", filter.Categoria, filter.Categoria)
	}
	if filter.ProveedorID != "" {
		q = q.Where("proveedor_id = ?", filter.ProveedorID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("codigo ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, "id = ?", id).Error
}

func (r *productoRepo) ListarBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("cantidad <= stock_minimo").
		Order("cantidad ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) UltimoCodigoEnUbicacion(ctx context.Context, categoriaCodigo, estante string) (string, error) {
	var codigo string
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Select("codigo").
		Where("categoria_codigo = ? AND estante = ?", categoriaCodigo, estante).
		Order("codigo DESC").
		Limit(1).
		Scan(&codigo).Error
	return codigo, err
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Producto{}).
		Where("id = ? AND cantidad >= ?", id, cantidad).
		Update("cantidad", gorm.Expr("cantidad - ?", cantidad))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productoRepo) RestaurarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Producto{}).
		Where("id = ?", id).
		Update("cantidad", gorm.Expr("cantidad + ?", cantidad))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productoRepo) IncrementarStock(ctx context.Context, id uuid.UUID, cantidad decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ?", id).
		Update("cantidad", gorm.Expr("cantidad + ?", cantidad)).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
