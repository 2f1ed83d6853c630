package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	CrearVenta(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	EliminarVenta(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) error
	ActualizarDatosVenta(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo           repository.VentaRepository
	productoRepo   repository.ProductoRepository
	clienteRepo    repository.ClienteRepository
	usuarioRepo    repository.UsuarioRepository
	movimientoRepo repository.MovimientoStockRepository
	auditoria      AuditoriaService
	dispatcher     *worker.Dispatcher
	commitTimeout  time.Duration
	maxReintentos  int
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	usuarioRepo repository.UsuarioRepository,
	movimientoRepo repository.MovimientoStockRepository,
	auditoria AuditoriaService,
	dispatcher *worker.Dispatcher,
	commitTimeout time.Duration,
	maxReintentos int,
) VentaService {
	if commitTimeout <= 0 {
		commitTimeout = 10 * time.Second
	}
	return &ventaService{
		repo:           repo,
		productoRepo:   productoRepo,
		clienteRepo:    clienteRepo,
		usuarioRepo:    usuarioRepo,
		movimientoRepo: movimientoRepo,
		auditoria:      auditoria,
		dispatcher:     dispatcher,
		commitTimeout:  commitTimeout,
		maxReintentos:  maxReintentos,
	}
}

// runTx executes fn inside a REPEATABLE READ transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode). All reads within
// fn see one snapshot; stock checks are therefore consistent with the eventual
// writes, and concurrent writers surface as retryable serialization errors.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

// ── CrearVenta ────────────────────────────────────────────────────────────────
// One atomic unit: validate stock for every line, decrement conditionally,
// allocate the next sale number, insert the sale with price/name snapshots.
// Either all of it becomes visible or none of it does.
//
// Order is strict: validate-all before apply-any, so a failing line aborts
// with zero side effects. Transient store conflicts (serialization failures,
// sale-number collisions) are retried a bounded number of times; stock-class
// failures surface immediately to the caller.

func (s *ventaService) CrearVenta(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("la venta debe incluir al menos un producto")
	}
	for _, item := range req.Items {
		if !item.Cantidad.IsPositive() {
			return nil, fmt.Errorf("cantidad inválida para producto %s", item.ProductoID)
		}
		if item.PrecioUnitario.IsNegative() {
			return nil, fmt.Errorf("precio inválido para producto %s", item.ProductoID)
		}
	}

	// Resolve the seller from the authenticated actor — never from the request.
	vendedor, err := s.usuarioRepo.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, fmt.Errorf("vendedor no encontrado: %w", err)
	}

	// Resolve the optional customer snapshot. Absent = "Consumidor Final":
	// both fields stay nil, never empty strings.
	var clienteID *uuid.UUID
	var clienteNombre *string
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id inválido: %w", err)
		}
		cliente, err := s.clienteRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, ErrClienteNoEncontrado
		}
		clienteID = &cid
		clienteNombre = &cliente.Nombre
	}

	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	var venta model.Venta
	for intento := 0; ; intento++ {
		venta = model.Venta{}
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.registrarTx(tx, vendedor, clienteID, clienteNombre, req, &venta)
		})
		if txErr == nil {
			break
		}
		if repository.EsErrorReintentable(txErr) && intento < s.maxReintentos {
			log.Warn().Int("intento", intento+1).Err(txErr).Msg("conflicto transaccional en venta, reintentando")
			continue
		}
		if errors.Is(txErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("la venta excedió el tiempo límite, reintente: %w", txErr)
		}
		return nil, txErr
	}

	s.auditoria.Registrar(ctx, vendedor, model.AccionCrearVenta, map[string]interface{}{
		"venta_id":     venta.ID.String(),
		"numero_venta": venta.NumeroVenta,
		"total":        venta.Total,
		"items":        len(venta.Items),
		"metodo_pago":  venta.MetodoPago,
		"cliente":      valorONil(clienteNombre),
	})

	// Async receipt job — best-effort, fire & forget.
	if s.dispatcher != nil {
		payload := map[string]interface{}{"venta_id": venta.ID.String()}
		if req.EmailRecibo != nil && *req.EmailRecibo != "" {
			payload["email_cliente"] = *req.EmailRecibo
		}
		_ = s.dispatcher.EnqueueRecibo(ctx, payload)
	}

	return ventaToResponse(&venta), nil
}

// registrarTx runs the validate → apply → allocate → insert sequence inside
// one transaction. It mutates *venta on success so the caller can build the
// response after commit.
func (s *ventaService) registrarTx(
	tx *gorm.DB,
	vendedor *model.Usuario,
	clienteID *uuid.UUID,
	clienteNombre *string,
	req dto.CrearVentaRequest,
	venta *model.Venta,
) error {
	type lineaResuelta struct {
		producto *model.Producto
		cantidad decimal.Decimal
		precio   decimal.Decimal
	}

	// Validate phase: resolve every line against the snapshot before touching
	// anything. A missing product or short stock aborts with no writes.
	resueltas := make([]lineaResuelta, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return fmt.Errorf("producto_id inválido: %w", err)
		}
		p, err := s.productoRepo.FindByIDTx(tx, pid)
		if err != nil {
			return &ProductoNoEncontradoError{ProductoID: item.ProductoID}
		}
		if p.TipoUnidad == "contable" && !item.Cantidad.IsInteger() {
			return fmt.Errorf("el producto %s se vende por %s enteras", p.Nombre, p.NombreUnidad)
		}
		if p.Cantidad.LessThan(item.Cantidad) {
			return &StockInsuficienteError{
				Producto:   p.Nombre,
				Disponible: p.Cantidad,
				Solicitada: item.Cantidad,
			}
		}
		resueltas = append(resueltas, lineaResuelta{producto: p, cantidad: item.Cantidad, precio: item.PrecioUnitario})
	}

	// Apply phase: conditional decrements. A zero-row match means another
	// transaction won the race — abort everything, never a partial apply.
	for _, r := range resueltas {
		ok, err := s.productoRepo.DescontarStockTx(tx, r.producto.ID, r.cantidad)
		if err != nil {
			return err
		}
		if !ok {
			return &ConflictoStockError{Producto: r.producto.Nombre}
		}
	}

	// Sequence allocation inside the same transaction as the insert.
	ultimo, err := s.repo.UltimoNumeroVentaTx(tx)
	if err != nil {
		return err
	}
	numero := SiguienteNumeroVenta(ultimo)

	// Assemble the immutable sale document with per-line snapshots.
	now := time.Now()
	total := decimal.Zero
	*venta = model.Venta{
		NumeroVenta:    numero,
		Fecha:          now,
		ClienteID:      clienteID,
		ClienteNombre:  clienteNombre,
		MetodoPago:     req.MetodoPago,
		UsuarioID:      vendedor.ID,
		VendedorNombre: vendedor.Nombre,
	}
	for _, r := range resueltas {
		subtotal := r.cantidad.Mul(r.precio)
		total = total.Add(subtotal)
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     r.producto.ID,
			CodigoProducto: r.producto.Codigo,
			NombreProducto: r.producto.Nombre,
			Cantidad:       r.cantidad,
			PrecioUnitario: r.precio,
			Subtotal:       subtotal,
		})
	}
	venta.Total = total

	if err := s.repo.CreateTx(tx, venta); err != nil {
		return err
	}

	// Stock ledger entries, one per line.
	for _, r := range resueltas {
		ref := venta.ID
		mov := &model.MovimientoStock{
			ProductoID:    r.producto.ID,
			Tipo:          "venta",
			Cantidad:      r.cantidad.Neg(),
			StockAnterior: r.producto.Cantidad,
			StockNuevo:    r.producto.Cantidad.Sub(r.cantidad),
			Motivo:        fmt.Sprintf("Venta %s", numero),
			ReferenciaID:  &ref,
		}
		if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
			return err
		}
	}

	return nil
}

// ── EliminarVenta ─────────────────────────────────────────────────────────────
// Restores stock for every line, then deletes the sale document, all in one
// transaction. The sale is loaded inside that same transaction, so the restore
// loop works from the read view the delete will act on — a rival deleter that
// commits first makes our delete match zero rows, which aborts the whole
// transaction and rolls the restorations back. A product that disappeared
// since the sale only logs a warning; the deletion still proceeds.

func (s *ventaService) EliminarVenta(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) error {
	actor, err := s.usuarioRepo.FindByID(ctx, usuarioID)
	if err != nil {
		return fmt.Errorf("usuario no encontrado: %w", err)
	}

	var venta *model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venta, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrVentaNoEncontrada
		}
		for _, item := range venta.Items {
			antes, findErr := s.productoRepo.FindByIDTx(tx, item.ProductoID)

			ok, err := s.productoRepo.RestaurarStockTx(tx, item.ProductoID, item.Cantidad)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn().
					Str("producto_id", item.ProductoID.String()).
					Str("producto", item.NombreProducto).
					Str("venta", venta.NumeroVenta).
					Msg("producto ya no existe, stock no restaurado")
				continue
			}

			stockAntes := decimal.Zero
			if findErr == nil && antes != nil {
				stockAntes = antes.Cantidad
			}
			ref := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    item.ProductoID,
				Tipo:          "restauracion",
				Cantidad:      item.Cantidad,
				StockAnterior: stockAntes,
				StockNuevo:    stockAntes.Add(item.Cantidad),
				Motivo:        fmt.Sprintf("Eliminación venta %s", venta.NumeroVenta),
				ReferenciaID:  &ref,
			}
			if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		filas, err := s.repo.DeleteTx(tx, id)
		if err != nil {
			return err
		}
		if filas == 0 {
			// Lost the race to another deleter: abort, rolling back the
			// restorations above.
			return ErrVentaNoEncontrada
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.auditoria.Registrar(ctx, actor, model.AccionEliminarVenta, map[string]interface{}{
		"venta_id":         venta.ID.String(),
		"numero_venta":     venta.NumeroVenta,
		"total":            venta.Total,
		"items":            len(venta.Items),
		"stock_restaurado": true,
	})
	return nil
}

// ── ActualizarDatosVenta ──────────────────────────────────────────────────────
// Touches only customer/payment metadata in a single atomic document update.
// Items and total are not reachable through this path. The customer intent is
// tri-state: reassign, clear to walk-in, or leave untouched.

func (s *ventaService) ActualizarDatosVenta(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error) {
	if req.ClienteID == nil && !req.QuitarCliente && req.MetodoPago == nil {
		return nil, errors.New("nada que actualizar")
	}

	campos := map[string]interface{}{"updated_at": time.Now()}
	if req.MetodoPago != nil {
		campos["metodo_pago"] = *req.MetodoPago
	}
	switch {
	case req.ClienteID != nil:
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id inválido: %w", err)
		}
		cliente, err := s.clienteRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, ErrClienteNoEncontrado
		}
		campos["cliente_id"] = cid
		campos["cliente_nombre"] = cliente.Nombre
	case req.QuitarCliente:
		campos["cliente_id"] = nil
		campos["cliente_nombre"] = nil
	}

	filas, err := s.repo.ActualizarDatos(ctx, id, campos)
	if err != nil {
		return nil, err
	}
	if filas == 0 {
		return nil, ErrVentaNoEncontrada
	}

	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor, err := s.usuarioRepo.FindByID(ctx, usuarioID); err == nil {
		s.auditoria.Registrar(ctx, actor, model.AccionActualizarVenta, map[string]interface{}{
			"venta_id":     venta.ID.String(),
			"numero_venta": venta.NumeroVenta,
			"metodo_pago":  venta.MetodoPago,
			"cliente":      valorONil(venta.ClienteNombre),
		})
	}

	return ventaToResponse(venta), nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	return ventaToResponse(venta), nil
}

// ListVentas returns a paginated list of sales, optionally filtered by date.
func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		items = append(items, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     item.ProductoID.String(),
			Codigo:         item.CodigoProducto,
			Producto:       item.NombreProducto,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	var clienteID *string
	if v.ClienteID != nil {
		s := v.ClienteID.String()
		clienteID = &s
	}
	return &dto.VentaResponse{
		ID:             v.ID.String(),
		NumeroVenta:    v.NumeroVenta,
		Fecha:          v.Fecha.Format(time.RFC3339),
		ClienteID:      clienteID,
		ClienteNombre:  v.ClienteNombre,
		Items:          items,
		Total:          v.Total,
		MetodoPago:     v.MetodoPago,
		UsuarioID:      v.UsuarioID.String(),
		VendedorNombre: v.VendedorNombre,
	}
}

func valorONil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
