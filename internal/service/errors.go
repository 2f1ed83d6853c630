package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrVentaNoEncontrada   = errors.New("venta no encontrada")
	ErrClienteNoEncontrado = errors.New("cliente no encontrado")
)

// ProductoNoEncontradoError: a sale line references a product that does not
// exist in the transaction's read view. Stock-class, user-correctable.
type ProductoNoEncontradoError struct {
	ProductoID string
	Nombre     string
}

func (e *ProductoNoEncontradoError) Error() string {
	if e.Nombre != "" {
		return fmt.Sprintf("producto %q no encontrado", e.Nombre)
	}
	return fmt.Sprintf("producto %s no encontrado", e.ProductoID)
}

// StockInsuficienteError: the requested quantity exceeds available stock at
// validation time. Stock-class, user-correctable.
type StockInsuficienteError struct {
	Producto   string
	Disponible decimal.Decimal
	Solicitada decimal.Decimal
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s",
		e.Producto, e.Disponible.String(), e.Solicitada.String())
}

// ConflictoStockError: the conditional decrement matched nothing at apply
// time — a concurrent transaction consumed the stock between validate and
// apply. The whole transaction aborts; the caller may retry against current
// quantities.
type ConflictoStockError struct {
	Producto string
}

func (e *ConflictoStockError) Error() string {
	return fmt.Sprintf("el stock de %s cambió durante la operación, reintente", e.Producto)
}

// EsErrorDeStock classifies expected, user-correctable stock failures so
// handlers can surface them verbatim instead of masking them as internal
// errors.
func EsErrorDeStock(err error) bool {
	var noEncontrado *ProductoNoEncontradoError
	var insuficiente *StockInsuficienteError
	return errors.As(err, &noEncontrado) || errors.As(err, &insuficiente)
}

// EsErrorDeConcurrencia classifies conflicts that leave no partial state and
// are safe for the caller to retry as-is.
func EsErrorDeConcurrencia(err error) bool {
	var conflicto *ConflictoStockError
	return errors.As(err, &conflicto)
}
