package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiguienteNumeroVenta(t *testing.T) {
	cases := []struct {
		ultimo   string
		esperado string
	}{
		{"", "V00001"},
		{"V00001", "V00002"},
		{"V00009", "V00010"},
		{"V00099", "V00100"},
		{"V09999", "V10000"},
		{"V99999", "V100000"}, // beyond 5 digits the number keeps growing
	}
	for _, c := range cases {
		assert.Equal(t, c.esperado, SiguienteNumeroVenta(c.ultimo), "ultimo=%q", c.ultimo)
	}
}

func TestSiguienteNumeroVentaEntradaCorrupta(t *testing.T) {
	// A malformed stored value restarts the sequence instead of panicking.
	assert.Equal(t, "V00001", SiguienteNumeroVenta("garbage"))
}

func TestSiguienteCodigoProducto(t *testing.T) {
	cases := []struct {
		categoria, estante, ultimo, esperado string
	}{
		{"01", "A1", "", "01-A1-00001"},
		{"01", "A1", "01-A1-00001", "01-A1-00002"},
		{"07", "B3", "07-B3-00041", "07-B3-00042"},
		{"01", "a1", "", "01-A1-00001"}, // shelf upper-cased
	}
	for _, c := range cases {
		assert.Equal(t, c.esperado, SiguienteCodigoProducto(c.categoria, c.estante, c.ultimo))
	}
}
