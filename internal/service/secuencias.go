package service

import (
	"fmt"
	"strconv"
	"strings"
)

const prefijoNumeroVenta = "V"

// SiguienteNumeroVenta derives the next sale correlative from the highest
// committed one: strip the "V" prefix, parse the numeric suffix (defaulting to
// 0 when absent or unparseable), add 1 and zero-pad to 5 digits. It must be
// called inside the same transaction as the sale insert — the unique index on
// numero_venta turns a concurrent collision into a retryable abort.
func SiguienteNumeroVenta(ultimo string) string {
	n := 0
	if v, err := strconv.Atoi(strings.TrimPrefix(ultimo, prefijoNumeroVenta)); err == nil {
		n = v
	}
	return fmt.Sprintf("%s%05d", prefijoNumeroVenta, n+1)
}

// SiguienteCodigoProducto derives the next product code for a categoria+shelf
// location. Codes have the form CC-SS-NNNNN; the sequence is independent per
// CC-SS pair and starts at 00001.
func SiguienteCodigoProducto(categoriaCodigo, estante, ultimoCodigo string) string {
	n := 0
	if partes := strings.Split(ultimoCodigo, "-"); len(partes) == 3 {
		if v, err := strconv.Atoi(partes[2]); err == nil {
			n = v
		}
	}
	return fmt.Sprintf("%s-%s-%05d", categoriaCodigo, strings.ToUpper(estante), n+1)
}
