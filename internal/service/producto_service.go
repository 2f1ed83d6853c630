package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrProductoNoEncontrado = errors.New("producto no encontrado")

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, actorID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
	AjustarStock(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
}

type productoService struct {
	repo           repository.ProductoRepository
	categoriaRepo  repository.CategoriaRepository
	movimientoRepo repository.MovimientoStockRepository
	usuarioRepo    repository.UsuarioRepository
	auditoria      AuditoriaService
	rdb            *redis.Client
}

func NewProductoService(
	repo repository.ProductoRepository,
	categoriaRepo repository.CategoriaRepository,
	movimientoRepo repository.MovimientoStockRepository,
	usuarioRepo repository.UsuarioRepository,
	auditoria AuditoriaService,
	rdb *redis.Client,
) ProductoService {
	return &productoService{
		repo:           repo,
		categoriaRepo:  categoriaRepo,
		movimientoRepo: movimientoRepo,
		usuarioRepo:    usuarioRepo,
		auditoria:      auditoria,
		rdb:            rdb,
	}
}

// Crear registers a product and allocates its code from the categoria+shelf
// location (CC-SS-NNNNN, sequence unique within the pair).
func (s *productoService) Crear(ctx context.Context, actorID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	categoria, err := s.categoriaRepo.FindByCodigo(ctx, req.CategoriaCodigo)
	if err != nil {
		return nil, fmt.Errorf("categoría %s no existe", req.CategoriaCodigo)
	}

	estante := strings.ToUpper(req.Estante)
	ultimo, err := s.repo.UltimoCodigoEnUbicacion(ctx, categoria.Codigo, estante)
	if err != nil {
		return nil, err
	}

	var proveedorID *uuid.UUID
	if req.ProveedorID != nil {
		pid, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, fmt.Errorf("proveedor_id inválido: %w", err)
		}
		proveedorID = &pid
	}

	p := &model.Producto{
		Codigo:          SiguienteCodigoProducto(categoria.Codigo, estante, ultimo),
		Nombre:          req.Nombre,
		Descripcion:     req.Descripcion,
		Categoria:       categoria.Nombre,
		CategoriaCodigo: categoria.Codigo,
		Estante:         estante,
		Cantidad:        req.Cantidad,
		PrecioUnitario:  req.PrecioUnitario,
		StockMinimo:     req.StockMinimo,
		TipoUnidad:      req.TipoUnidad,
		NombreUnidad:    req.NombreUnidad,
		ProveedorID:     proveedorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if p.Cantidad.IsPositive() {
		_ = s.movimientoRepo.Create(ctx, &model.MovimientoStock{
			ProductoID:    p.ID,
			Tipo:          "ingreso",
			Cantidad:      p.Cantidad,
			StockAnterior: decimal.Zero,
			StockNuevo:    p.Cantidad,
			Motivo:        "Alta de producto",
		})
	}

	if actor, err := s.usuarioRepo.FindByID(ctx, actorID); err == nil {
		s.auditoria.Registrar(ctx, actor, model.AccionCrearProducto, map[string]interface{}{
			"producto_id": p.ID.String(),
			"codigo":      p.Codigo,
			"nombre":      p.Nombre,
		})
	}

	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		items = append(items, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}

	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.PrecioUnitario != nil {
		p.PrecioUnitario = *req.PrecioUnitario
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.VentasDiarias != nil {
		p.VentasDiarias = *req.VentasDiarias
	}
	if req.NombreUnidad != nil {
		p.NombreUnidad = *req.NombreUnidad
	}
	if req.ProveedorID != nil {
		pid, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, fmt.Errorf("proveedor_id inválido: %w", err)
		}
		p.ProveedorID = &pid
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidarCache(ctx, p.Codigo)
	return productoToResponse(p), nil
}

// Eliminar removes the product permanently. Historical sale lines keep their
// snapshots, so nothing cascades.
func (s *productoService) Eliminar(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrProductoNoEncontrado
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidarCache(ctx, p.Codigo)

	if actor, err := s.usuarioRepo.FindByID(ctx, actorID); err == nil {
		s.auditoria.Registrar(ctx, actor, model.AccionEliminarProducto, map[string]interface{}{
			"producto_id": p.ID.String(),
			"codigo":      p.Codigo,
			"nombre":      p.Nombre,
		})
	}
	return nil
}

// AjustarStock adds incoming merchandise. Sale decrements never pass through
// here — they live inside the sale transaction.
func (s *productoService) AjustarStock(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}

	if err := s.repo.IncrementarStock(ctx, id, req.Cantidad); err != nil {
		return nil, err
	}

	_ = s.movimientoRepo.Create(ctx, &model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          "ajuste",
		Cantidad:      req.Cantidad,
		StockAnterior: p.Cantidad,
		StockNuevo:    p.Cantidad.Add(req.Cantidad),
		Motivo:        req.Motivo,
	})

	if actor, err := s.usuarioRepo.FindByID(ctx, actorID); err == nil {
		s.auditoria.Registrar(ctx, actor, model.AccionAjustarStock, map[string]interface{}{
			"producto_id": p.ID.String(),
			"codigo":      p.Codigo,
			"cantidad":    req.Cantidad,
			"motivo":      req.Motivo,
		})
	}

	p, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

// invalidarCache drops the public price-check cache entry for a code.
func (s *productoService) invalidarCache(ctx context.Context, codigo string) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, "precio:"+codigo).Err()
	}
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	var proveedorID *string
	if p.ProveedorID != nil {
		s := p.ProveedorID.String()
		proveedorID = &s
	}
	return &dto.ProductoResponse{
		ID:              p.ID.String(),
		Codigo:          p.Codigo,
		Nombre:          p.Nombre,
		Descripcion:     p.Descripcion,
		Categoria:       p.Categoria,
		CategoriaCodigo: p.CategoriaCodigo,
		Estante:         p.Estante,
		Cantidad:        p.Cantidad,
		PrecioUnitario:  p.PrecioUnitario,
		StockMinimo:     p.StockMinimo,
		VentasDiarias:   p.VentasDiarias,
		TipoUnidad:      p.TipoUnidad,
		NombreUnidad:    p.NombreUnidad,
		ProveedorID:     proveedorID,
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}
