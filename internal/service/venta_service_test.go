package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/dto"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubVentaRepo is an in-memory VentaRepository. DB() returns nil so the
// service runs its transaction callback directly (no real store involved).
type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for _, existente := range r.ventas {
		if existente.NumeroVenta == v.NumeroVenta {
			return &pgconn.PgError{
				Code:           "23505",
				Message:        "duplicate key value violates unique constraint",
				ConstraintName: "uni_ventas_numero_venta",
			}
		}
	}
	copia := *v
	r.ventas[v.ID] = &copia
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *v
	return &copia, nil
}

func (r *stubVentaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubVentaRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	if _, ok := r.ventas[id]; !ok {
		return 0, nil
	}
	delete(r.ventas, id)
	return 1, nil
}

func (r *stubVentaRepo) UltimoNumeroVentaTx(_ *gorm.DB) (string, error) {
	ultimo := ""
	for _, v := range r.ventas {
		n := v.NumeroVenta
		if len(n) > len(ultimo) || (len(n) == len(ultimo) && n > ultimo) {
			ultimo = n
		}
	}
	return ultimo, nil
}

func (r *stubVentaRepo) ActualizarDatos(_ context.Context, id uuid.UUID, campos map[string]interface{}) (int64, error) {
	v, ok := r.ventas[id]
	if !ok {
		return 0, nil
	}
	if mp, ok := campos["metodo_pago"]; ok {
		v.MetodoPago = mp.(string)
	}
	if cid, ok := campos["cliente_id"]; ok {
		if cid == nil {
			v.ClienteID = nil
		} else {
			u := cid.(uuid.UUID)
			v.ClienteID = &u
		}
	}
	if cn, ok := campos["cliente_nombre"]; ok {
		if cn == nil {
			v.ClienteNombre = nil
		} else {
			s := cn.(string)
			v.ClienteNombre = &s
		}
	}
	return 1, nil
}

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	out := make([]model.Venta, 0, len(r.ventas))
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// stubProductoRepo keeps products in memory and honors the conditional
// decrement contract: DescontarStockTx only applies when stock suffices.
type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) agregar(p *model.Producto) *model.Producto {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.agregar(p)
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.Codigo == codigo {
			copia := *p
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	return nil, 0, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) ListarBajoStock(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Cantidad.LessThanOrEqual(p.StockMinimo) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) UltimoCodigoEnUbicacion(_ context.Context, categoriaCodigo, estante string) (string, error) {
	ultimo := ""
	for _, p := range r.productos {
		if p.CategoriaCodigo == categoriaCodigo && p.Estante == estante && p.Codigo > ultimo {
			ultimo = p.Codigo
		}
	}
	return ultimo, nil
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	p, ok := r.productos[id]
	if !ok || p.Cantidad.LessThan(cantidad) {
		return false, nil
	}
	p.Cantidad = p.Cantidad.Sub(cantidad)
	return true, nil
}

func (r *stubProductoRepo) RestaurarStockTx(_ *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	p, ok := r.productos[id]
	if !ok {
		return false, nil
	}
	p.Cantidad = p.Cantidad.Add(cantidad)
	return true, nil
}

func (r *stubProductoRepo) IncrementarStock(_ context.Context, id uuid.UUID, cantidad decimal.Decimal) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Cantidad = p.Cantidad.Add(cantidad)
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) agregar(nombre string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre}
	r.clientes[c.ID] = c
	return c
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClienteRepo) List(_ context.Context) ([]model.Cliente, error) { return nil, nil }
func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}
func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clientes, id)
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) agregar(nombre, rol string) *model.Usuario {
	u := &model.Usuario{ID: uuid.New(), Username: nombre, Nombre: nombre, Rol: rol, Activo: true}
	r.usuarios[u.ID] = u
	return u
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error)  { return nil, nil }
func (r *stubUsuarioRepo) Update(_ context.Context, _ *model.Usuario) error { return nil }
func (r *stubUsuarioRepo) SoftDelete(_ context.Context, _ uuid.UUID) error  { return nil }
func (r *stubUsuarioRepo) Reactivar(_ context.Context, _ uuid.UUID) error   { return nil }

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) ListByProducto(_ context.Context, productoID uuid.UUID, _ int) ([]model.MovimientoStock, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// stubAuditoria records every emitted action for assertion.
type stubAuditoria struct {
	acciones []string
	detalles []map[string]interface{}
}

func (a *stubAuditoria) Registrar(_ context.Context, _ *model.Usuario, accion string, detalles map[string]interface{}) {
	a.acciones = append(a.acciones, accion)
	a.detalles = append(a.detalles, detalles)
}

var _ AuditoriaService = (*stubAuditoria)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type ventaFixture struct {
	svc       VentaService
	ventas    *stubVentaRepo
	productos *stubProductoRepo
	clientes  *stubClienteRepo
	usuarios  *stubUsuarioRepo
	movs      *stubMovimientoRepo
	auditoria *stubAuditoria
	vendedor  *model.Usuario
	martillo  *model.Producto
	cable     *model.Producto
}

func newVentaFixture(t *testing.T) *ventaFixture {
	t.Helper()
	f := &ventaFixture{
		ventas:    newStubVentaRepo(),
		productos: newStubProductoRepo(),
		clientes:  newStubClienteRepo(),
		usuarios:  newStubUsuarioRepo(),
		movs:      &stubMovimientoRepo{},
		auditoria: &stubAuditoria{},
	}
	f.vendedor = f.usuarios.agregar("carlos", "vendedor")
	f.martillo = f.productos.agregar(&model.Producto{
		Codigo:         "01-A1-00001",
		Nombre:         "Martillo de uña",
		Cantidad:       decimal.NewFromInt(10),
		PrecioUnitario: decimal.RequireFromString("8.50"),
		TipoUnidad:     "contable",
		NombreUnidad:   "unidad",
	})
	f.cable = f.productos.agregar(&model.Producto{
		Codigo:         "02-B1-00001",
		Nombre:         "Cable THW 12",
		Cantidad:       decimal.RequireFromString("50.000"),
		PrecioUnitario: decimal.RequireFromString("1.25"),
		TipoUnidad:     "medible",
		NombreUnidad:   "metro",
	})
	f.svc = NewVentaService(
		f.ventas, f.productos, f.clientes, f.usuarios, f.movs,
		f.auditoria, nil, 5*time.Second, 3,
	)
	return f
}

func itemReq(p *model.Producto, cantidad string) dto.ItemVentaRequest {
	return dto.ItemVentaRequest{
		ProductoID:     p.ID.String(),
		Cantidad:       decimal.RequireFromString(cantidad),
		PrecioUnitario: p.PrecioUnitario,
	}
}

// ── CrearVenta ────────────────────────────────────────────────────────────────

func TestCrearVentaDescuentaStockYCalculaTotal(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			itemReq(f.martillo, "2"),
			itemReq(f.cable, "3.5"),
		},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)

	// total = 2×8.50 + 3.5×1.25 = 21.375
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("21.375")), "total = %s", resp.Total)
	assert.Equal(t, "V00001", resp.NumeroVenta)
	assert.Len(t, resp.Items, 2)

	// stock decremented
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(8)))
	assert.True(t, f.productos.productos[f.cable.ID].Cantidad.Equal(decimal.RequireFromString("46.5")))

	// one ledger entry per line, negative quantities
	require.Len(t, f.movs.movimientos, 2)
	assert.Equal(t, "venta", f.movs.movimientos[0].Tipo)
	assert.True(t, f.movs.movimientos[0].Cantidad.IsNegative())

	// audit trail
	require.Len(t, f.auditoria.acciones, 1)
	assert.Equal(t, model.AccionCrearVenta, f.auditoria.acciones[0])
}

func TestCrearVentaSnapshotDePrecioYNombre(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)

	// mutate the product after the sale; the stored line must not move
	f.productos.productos[f.martillo.ID].Nombre = "Martillo renombrado"
	f.productos.productos[f.martillo.ID].PrecioUnitario = decimal.NewFromInt(99)

	ventaID := uuid.MustParse(resp.ID)
	guardada, err := f.ventas.FindByID(context.Background(), ventaID)
	require.NoError(t, err)
	assert.Equal(t, "Martillo de uña", guardada.Items[0].NombreProducto)
	assert.True(t, guardada.Items[0].PrecioUnitario.Equal(decimal.RequireFromString("8.50")))
	assert.Equal(t, "01-A1-00001", guardada.Items[0].CodigoProducto)
}

func TestCrearVentaStockInsuficienteSinEfectos(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			itemReq(f.martillo, "2"),
			itemReq(f.cable, "999"), // short
		},
		MetodoPago: "efectivo",
	})
	require.Error(t, err)
	assert.True(t, EsErrorDeStock(err))

	var stockErr *StockInsuficienteError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Cable THW 12", stockErr.Producto)

	// no partial effects: first line's stock untouched, nothing persisted
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(10)))
	assert.Empty(t, f.ventas.ventas)
	assert.Empty(t, f.movs.movimientos)
	assert.Empty(t, f.auditoria.acciones)
}

func TestCrearVentaProductoInexistente(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: uuid.NewString(), Cantidad: decimal.NewFromInt(1)},
		},
		MetodoPago: "efectivo",
	})
	require.Error(t, err)

	var notFound *ProductoNoEncontradoError
	assert.True(t, errors.As(err, &notFound))
	assert.True(t, EsErrorDeStock(err))
	assert.Empty(t, f.ventas.ventas)
}

func TestCrearVentaContableRequiereCantidadEntera(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1.5")},
		MetodoPago: "efectivo",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enteras")
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(10)))
}

func TestCrearVentaConsumidorFinal(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)

	// walk-in: both customer fields absent, never empty strings
	assert.Nil(t, resp.ClienteID)
	assert.Nil(t, resp.ClienteNombre)

	guardada, _ := f.ventas.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.Nil(t, guardada.ClienteID)
	assert.Nil(t, guardada.ClienteNombre)
}

func TestCrearVentaConClienteRegistrado(t *testing.T) {
	f := newVentaFixture(t)
	cliente := f.clientes.agregar("Ferretería El Tornillo")
	cid := cliente.ID.String()

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		ClienteID:  &cid,
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "tarjeta",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ClienteNombre)
	assert.Equal(t, "Ferretería El Tornillo", *resp.ClienteNombre)
	assert.Equal(t, cid, *resp.ClienteID)
}

func TestCrearVentaClienteInexistente(t *testing.T) {
	f := newVentaFixture(t)
	cid := uuid.NewString()

	_, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		ClienteID:  &cid,
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	assert.ErrorIs(t, err, ErrClienteNoEncontrado)
	assert.Empty(t, f.ventas.ventas)
}

func TestCrearVentaVendedorResueltoDelActor(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, f.vendedor.Nombre, resp.VendedorNombre)
	assert.Equal(t, f.vendedor.ID.String(), resp.UsuarioID)
}

func TestNumeroVentaSecuencial(t *testing.T) {
	f := newVentaFixture(t)

	for i, esperado := range []string{"V00001", "V00002", "V00003"} {
		resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
			Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
			MetodoPago: "efectivo",
		})
		require.NoError(t, err, "venta %d", i+1)
		assert.Equal(t, esperado, resp.NumeroVenta)
	}
}

// ── EliminarVenta ─────────────────────────────────────────────────────────────

func TestEliminarVentaRestauraStock(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			itemReq(f.martillo, "4"),
			itemReq(f.cable, "10"),
		},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	require.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(6)))

	err = f.svc.EliminarVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID)
	require.NoError(t, err)

	// stock restored to the original levels, sale gone
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(10)))
	assert.True(t, f.productos.productos[f.cable.ID].Cantidad.Equal(decimal.RequireFromString("50")))
	assert.Empty(t, f.ventas.ventas)

	// ledger shows the restorations; audit shows the deletion
	restauraciones := 0
	for _, m := range f.movs.movimientos {
		if m.Tipo == "restauracion" {
			restauraciones++
		}
	}
	assert.Equal(t, 2, restauraciones)
	assert.Equal(t, model.AccionEliminarVenta, f.auditoria.acciones[len(f.auditoria.acciones)-1])
}

func TestEliminarVentaProductoDesaparecido(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			itemReq(f.martillo, "2"),
			itemReq(f.cable, "5"),
		},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)

	// the hammer is deleted from the catalog before the sale is reversed
	require.NoError(t, f.productos.Delete(context.Background(), f.martillo.ID))

	err = f.svc.EliminarVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID)
	require.NoError(t, err, "deletion proceeds despite the missing product")

	// surviving product restored, sale removed
	assert.True(t, f.productos.productos[f.cable.ID].Cantidad.Equal(decimal.RequireFromString("50")))
	assert.Empty(t, f.ventas.ventas)
}

func TestEliminarVentaNoExiste(t *testing.T) {
	f := newVentaFixture(t)
	err := f.svc.EliminarVenta(context.Background(), uuid.New(), f.vendedor.ID)
	assert.ErrorIs(t, err, ErrVentaNoEncontrada)
}

// ── ActualizarDatosVenta ──────────────────────────────────────────────────────

func crearVentaConCliente(t *testing.T, f *ventaFixture) (*dto.VentaResponse, *model.Cliente) {
	t.Helper()
	cliente := f.clientes.agregar("Construcciones Díaz")
	cid := cliente.ID.String()
	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		ClienteID:  &cid,
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "2")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	return resp, cliente
}

func TestActualizarVentaReasignaCliente(t *testing.T) {
	f := newVentaFixture(t)
	resp, _ := crearVentaConCliente(t, f)
	otro := f.clientes.agregar("Obras del Sur")
	oid := otro.ID.String()

	actualizada, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID, dto.ActualizarVentaRequest{
		ClienteID: &oid,
	})
	require.NoError(t, err)
	assert.Equal(t, "Obras del Sur", *actualizada.ClienteNombre)
	assert.Equal(t, oid, *actualizada.ClienteID)
}

func TestActualizarVentaQuitaCliente(t *testing.T) {
	f := newVentaFixture(t)
	resp, _ := crearVentaConCliente(t, f)

	actualizada, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID, dto.ActualizarVentaRequest{
		QuitarCliente: true,
	})
	require.NoError(t, err)
	assert.Nil(t, actualizada.ClienteID)
	assert.Nil(t, actualizada.ClienteNombre)
}

func TestActualizarVentaSoloMetodoPagoDejaClienteIntacto(t *testing.T) {
	f := newVentaFixture(t)
	resp, cliente := crearVentaConCliente(t, f)
	mp := "tarjeta"

	actualizada, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID, dto.ActualizarVentaRequest{
		MetodoPago: &mp,
	})
	require.NoError(t, err)
	assert.Equal(t, "tarjeta", actualizada.MetodoPago)
	// customer untouched: neither reassigned nor cleared
	require.NotNil(t, actualizada.ClienteNombre)
	assert.Equal(t, cliente.Nombre, *actualizada.ClienteNombre)
}

func TestActualizarVentaNoTocaItemsNiTotal(t *testing.T) {
	f := newVentaFixture(t)
	resp, _ := crearVentaConCliente(t, f)
	mp := "tarjeta"

	actualizada, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID, dto.ActualizarVentaRequest{
		MetodoPago:    &mp,
		QuitarCliente: true,
	})
	require.NoError(t, err)
	assert.True(t, actualizada.Total.Equal(resp.Total))
	assert.Equal(t, len(resp.Items), len(actualizada.Items))
	assert.Equal(t, resp.NumeroVenta, actualizada.NumeroVenta)

	// stock must not move on a metadata edit
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(8)))
}

func TestActualizarVentaSinCambios(t *testing.T) {
	f := newVentaFixture(t)
	resp, _ := crearVentaConCliente(t, f)

	_, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.MustParse(resp.ID), f.vendedor.ID, dto.ActualizarVentaRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nada que actualizar")
}

// ── Carreras y reintentos ─────────────────────────────────────────────────────

// ventaRepoLecturaObsoleta plays the loser of a double delete: its read view
// still contains the sale, but the row is gone by the time the delete runs.
type ventaRepoLecturaObsoleta struct {
	*stubVentaRepo
	obsoleta model.Venta
}

func (r *ventaRepoLecturaObsoleta) FindByIDTx(_ *gorm.DB, _ uuid.UUID) (*model.Venta, error) {
	copia := r.obsoleta
	return &copia, nil
}

func TestEliminarVentaPierdeCarreraContraOtroBorrado(t *testing.T) {
	f := newVentaFixture(t)

	resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "2")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	venta, err := f.ventas.FindByID(context.Background(), id)
	require.NoError(t, err)

	// The rival deleter commits first: sale removed, stock restored.
	filas, err := f.ventas.DeleteTx(nil, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, filas)

	repo := &ventaRepoLecturaObsoleta{stubVentaRepo: f.ventas, obsoleta: *venta}
	svc := NewVentaService(repo, f.productos, f.clientes, f.usuarios, f.movs, f.auditoria, nil, 5*time.Second, 3)

	// The loser's delete matches zero rows and must abort with not-found
	// instead of reporting a second successful deletion.
	err = svc.EliminarVenta(context.Background(), id, f.vendedor.ID)
	assert.ErrorIs(t, err, ErrVentaNoEncontrada)

	for _, accion := range f.auditoria.acciones {
		assert.NotEqual(t, model.AccionEliminarVenta, accion, "el perdedor no debe auditar un borrado exitoso")
	}
}

// productoRepoConflicto passes validation but reports a lost conditional
// decrement, as when a rival sale consumes the stock between the read and
// the UPDATE.
type productoRepoConflicto struct {
	*stubProductoRepo
	conflictivo uuid.UUID
}

func (r *productoRepoConflicto) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	if id == r.conflictivo {
		return false, nil
	}
	return r.stubProductoRepo.DescontarStockTx(tx, id, cantidad)
}

func TestCrearVentaConflictoDeStockAbortaSinEfectos(t *testing.T) {
	f := newVentaFixture(t)
	productos := &productoRepoConflicto{stubProductoRepo: f.productos, conflictivo: f.martillo.ID}
	svc := NewVentaService(f.ventas, productos, f.clientes, f.usuarios, f.movs, f.auditoria, nil, 5*time.Second, 3)

	_, err := svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items: []dto.ItemVentaRequest{
			itemReq(f.martillo, "2"),
			itemReq(f.cable, "3"),
		},
		MetodoPago: "efectivo",
	})
	require.Error(t, err)
	assert.True(t, EsErrorDeConcurrencia(err))

	var conflicto *ConflictoStockError
	require.True(t, errors.As(err, &conflicto))
	assert.Equal(t, "Martillo de uña", conflicto.Producto)

	// nothing persisted, no later line decremented
	assert.Empty(t, f.ventas.ventas)
	assert.Empty(t, f.movs.movimientos)
	assert.Empty(t, f.auditoria.acciones)
	assert.True(t, f.productos.productos[f.cable.ID].Cantidad.Equal(decimal.RequireFromString("50.000")))
}

// productoRepoSerializacion fails the first N decrements with a retryable
// SQLSTATE, as a serialization failure under REPEATABLE READ does.
type productoRepoSerializacion struct {
	*stubProductoRepo
	fallos   int
	llamadas int
}

func (r *productoRepoSerializacion) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (bool, error) {
	r.llamadas++
	if r.llamadas <= r.fallos {
		return false, &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	}
	return r.stubProductoRepo.DescontarStockTx(tx, id, cantidad)
}

func TestCrearVentaReintentaTrasFalloDeSerializacion(t *testing.T) {
	f := newVentaFixture(t)
	productos := &productoRepoSerializacion{stubProductoRepo: f.productos, fallos: 2}
	svc := NewVentaService(f.ventas, productos, f.clientes, f.usuarios, f.movs, f.auditoria, nil, 5*time.Second, 3)

	resp, err := svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, "V00001", resp.NumeroVenta)
	assert.Equal(t, 3, productos.llamadas, "dos intentos fallidos y uno exitoso")
	// the winning attempt decremented exactly once
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(9)))
}

func TestCrearVentaAgotaReintentos(t *testing.T) {
	f := newVentaFixture(t)
	productos := &productoRepoSerializacion{stubProductoRepo: f.productos, fallos: 1 << 30}
	svc := NewVentaService(f.ventas, productos, f.clientes, f.usuarios, f.movs, f.auditoria, nil, 5*time.Second, 2)

	_, err := svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
		Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
		MetodoPago: "efectivo",
	})
	require.Error(t, err)
	assert.True(t, repository.EsErrorReintentable(err), "el error final es el conflicto original")

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "40001", pgErr.Code)

	assert.Equal(t, 3, productos.llamadas, "un intento inicial más dos reintentos")
	assert.Empty(t, f.ventas.ventas)
	assert.Empty(t, f.movs.movimientos)
	assert.True(t, f.productos.productos[f.martillo.ID].Cantidad.Equal(decimal.NewFromInt(10)))
}

func TestNumeroVentaCrecePasadoV99999(t *testing.T) {
	f := newVentaFixture(t)
	tope := &model.Venta{ID: uuid.New(), NumeroVenta: "V99999", UsuarioID: f.vendedor.ID}
	f.ventas.ventas[tope.ID] = tope

	for _, esperado := range []string{"V100000", "V100001"} {
		resp, err := f.svc.CrearVenta(context.Background(), f.vendedor.ID, dto.CrearVentaRequest{
			Items:      []dto.ItemVentaRequest{itemReq(f.martillo, "1")},
			MetodoPago: "efectivo",
		})
		require.NoError(t, err)
		assert.Equal(t, esperado, resp.NumeroVenta)
	}
}

func TestActualizarVentaNoExiste(t *testing.T) {
	f := newVentaFixture(t)
	mp := "tarjeta"
	_, err := f.svc.ActualizarDatosVenta(context.Background(), uuid.New(), f.vendedor.ID, dto.ActualizarVentaRequest{MetodoPago: &mp})
	assert.ErrorIs(t, err, ErrVentaNoEncontrada)
}
