package repository

import (
	"context"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)

	// DeleteTx removes one sale and reports how many rows matched. Zero rows
	// means a concurrent transaction deleted it first; the caller must abort
	// so its stock restorations roll back with the transaction.
	DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error)

	// UltimoNumeroVentaTx reads the highest committed sale number inside the
	// transaction's read view ("" when no sales exist). Numbers are zero
	// padded to five digits but grow past V99999, so ordering is by length
	// first and lexically second.
	UltimoNumeroVentaTx(tx *gorm.DB) (string, error)

	// ActualizarDatos applies a single atomic column update to one sale and
	// reports how many rows matched (0 = sale does not exist).
	ActualizarDatos(ctx context.Context, id uuid.UUID, campos map[string]interface{}) (int64, error)

	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Preload("Items").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	// Items fall with the sale via ON DELETE CASCADE.
	res := tx.Delete(&model.Venta{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *ventaRepo) UltimoNumeroVentaTx(tx *gorm.DB) (string, error) {
	var numero string
	err := tx.Model(&model.Venta{}).
		Select("numero_venta").
		Order("length(numero_venta) DESC, numero_venta DESC").
		Limit(1).
		Scan(&numero).Error
	return numero, err
}

func (r *ventaRepo) ActualizarDatos(ctx context.Context, id uuid.UUID, campos map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Updates(campos)
	return res.RowsAffected, res.Error
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.Fecha != "" {
		q = q.Where("DATE(fecha) = ?", filter.Fecha)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("numero_venta DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}
