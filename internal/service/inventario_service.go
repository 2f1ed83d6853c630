package service

import (
	"context"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/google/uuid"
)

// InventarioService exposes the read side of stock control: reorder alerts
// and the movement ledger. Writes happen in VentaService (sale/restore) and
// ProductoService (adjustments).
type InventarioService interface {
	Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	Movimientos(ctx context.Context, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error)
}

type inventarioService struct {
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoStockRepository
}

func NewInventarioService(productoRepo repository.ProductoRepository, movimientoRepo repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{productoRepo: productoRepo, movimientoRepo: movimientoRepo}
}

// Alertas lists products at or below their reorder threshold. DiasDeStock is
// only reported for products with sales history; a brand-new product has no
// meaningful depletion estimate.
func (s *inventarioService) Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productoRepo.ListarBajoStock(ctx)
	if err != nil {
		return nil, err
	}

	alertas := make([]dto.AlertaStockResponse, 0, len(productos))
	for i := range productos {
		p := &productos[i]
		a := dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			Cantidad:    p.Cantidad,
			StockMinimo: p.StockMinimo,
		}
		if p.VentasDiarias.IsPositive() {
			dias := p.Cantidad.Div(p.VentasDiarias).Round(1)
			a.DiasDeStock = &dias
		}
		alertas = append(alertas, a)
	}
	return alertas, nil
}

func (s *inventarioService) Movimientos(ctx context.Context, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	movimientos, err := s.movimientoRepo.ListByProducto(ctx, productoID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MovimientoStockResponse, 0, len(movimientos))
	for i := range movimientos {
		m := &movimientos[i]
		r := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			ProductoID:    m.ProductoID.String(),
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			r.ReferenciaID = &ref
		}
		out = append(out, r)
	}
	return out, nil
}
