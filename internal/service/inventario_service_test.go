package service

import (
	"context"
	"testing"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertasSoloProductosBajoMinimo(t *testing.T) {
	productos := newStubProductoRepo()
	productos.agregar(&model.Producto{
		Codigo:      "01-A1-00001",
		Nombre:      "Tornillo 1/4",
		Cantidad:    decimal.NewFromInt(3),
		StockMinimo: decimal.NewFromInt(5),
	})
	productos.agregar(&model.Producto{
		Codigo:      "01-A1-00002",
		Nombre:      "Tuerca 1/4",
		Cantidad:    decimal.NewFromInt(100),
		StockMinimo: decimal.NewFromInt(5),
	})

	svc := NewInventarioService(productos, &stubMovimientoRepo{})
	alertas, err := svc.Alertas(context.Background())
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, "Tornillo 1/4", alertas[0].Nombre)
}

func TestAlertasDiasDeStock(t *testing.T) {
	productos := newStubProductoRepo()
	productos.agregar(&model.Producto{
		Codigo:        "02-B1-00001",
		Nombre:        "Pintura blanca",
		Cantidad:      decimal.NewFromInt(4),
		StockMinimo:   decimal.NewFromInt(5),
		VentasDiarias: decimal.RequireFromString("2.5"),
	})
	productos.agregar(&model.Producto{
		Codigo:      "02-B1-00002",
		Nombre:      "Pintura negra",
		Cantidad:    decimal.NewFromInt(4),
		StockMinimo: decimal.NewFromInt(5),
		// sin historial de ventas
	})

	svc := NewInventarioService(productos, &stubMovimientoRepo{})
	alertas, err := svc.Alertas(context.Background())
	require.NoError(t, err)
	require.Len(t, alertas, 2)

	porNombre := make(map[string]*decimal.Decimal, 2)
	for i := range alertas {
		porNombre[alertas[i].Nombre] = alertas[i].DiasDeStock
	}
	require.NotNil(t, porNombre["Pintura blanca"])
	assert.True(t, porNombre["Pintura blanca"].Equal(decimal.RequireFromString("1.6")), "4/2.5 = %s", porNombre["Pintura blanca"])
	assert.Nil(t, porNombre["Pintura negra"], "sin ventas diarias no hay estimación")
}

func TestMovimientosFiltraPorProducto(t *testing.T) {
	movs := &stubMovimientoRepo{}
	objetivo := uuid.New()
	otro := uuid.New()
	require.NoError(t, movs.Create(context.Background(), &model.MovimientoStock{ProductoID: objetivo, Tipo: "ingreso", Cantidad: decimal.NewFromInt(10)}))
	require.NoError(t, movs.Create(context.Background(), &model.MovimientoStock{ProductoID: otro, Tipo: "venta", Cantidad: decimal.NewFromInt(-2)}))
	require.NoError(t, movs.Create(context.Background(), &model.MovimientoStock{ProductoID: objetivo, Tipo: "ajuste", Cantidad: decimal.NewFromInt(5)}))

	svc := NewInventarioService(newStubProductoRepo(), movs)
	out, err := svc.Movimientos(context.Background(), objetivo, 0) // 0 clamps to default
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ingreso", out[0].Tipo)
	assert.Equal(t, "ajuste", out[1].Tipo)
}
