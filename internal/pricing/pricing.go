// Package pricing implementa el motor de precios escalonados: cálculo
// determinista del precio final de un producto a partir de precio base,
// margen porcentual y porcentaje de IVA, con redondeo por paso y
// reconciliación por tolerancia contra precios precalculados por el legado.
//
// Sin efectos secundarios: este paquete no toca base de datos ni red.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrPrecioBaseNegativo se devuelve cuando el precio base es < 0.
	// Nunca se sustituye silenciosamente por cero: el llamador decide si
	// omite el registro o aborta.
	ErrPrecioBaseNegativo = errors.New("precio base negativo")

	// ErrIVAInvalido se devuelve cuando el porcentaje de IVA está fuera de [0,100].
	ErrIVAInvalido = errors.New("porcentaje de IVA fuera de rango [0,100]")
)

var (
	cien = decimal.NewFromInt(100)

	// toleranciaReconciliacion es la discrepancia relativa máxima (1%) hasta
	// la cual se confía en el precio almacenado por el legado en lugar del
	// recalculado. Evita que pequeñas diferencias de redondeo entre sistemas
	// hagan oscilar precios visibles al cliente entre corridas de sync.
	toleranciaReconciliacion = decimal.NewFromFloat(0.01)
)

// Round2 redondea a 2 decimales, mitades hacia arriba. Todos los montos
// monetarios del sistema pasan por aquí; el legado redondea en cada paso
// intermedio y ese comportamiento debe conservarse para que los totales
// coincidan hacia atrás.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Desglose es el resultado completo de un cálculo de precio. Cada campo
// monetario ya viene redondeado a 2 decimales de forma independiente.
type Desglose struct {
	PrecioBase      decimal.Decimal `json:"precio_base"`
	PrecioConMargen decimal.Decimal `json:"precio_con_margen"`
	MontoIVA        decimal.Decimal `json:"monto_iva"`
	PrecioFinal     decimal.Decimal `json:"precio_final"`
	MargenPct       decimal.Decimal `json:"margen_pct"`
	IVAPct          decimal.Decimal `json:"iva_pct"`
}

// Calcular computa el precio final de un producto para un margen y un IVA
// dados. El margen puede ser negativo (descuento); el IVA debe estar en
// [0,100]. Fórmula autoritativa: margen primero, IVA después, redondeando
// en cada paso:
//
//	precio_con_margen = round2(base × (1 + margen/100))
//	monto_iva         = round2(precio_con_margen × iva/100)
//	precio_final      = round2(precio_con_margen + monto_iva)
//
// Con iva = 0 se obtiene la convención "IVA incluido en el precio base".
func Calcular(base, margenPct, ivaPct decimal.Decimal) (Desglose, error) {
	if base.IsNegative() {
		return Desglose{}, ErrPrecioBaseNegativo
	}
	if ivaPct.IsNegative() || ivaPct.GreaterThan(cien) {
		return Desglose{}, ErrIVAInvalido
	}

	base = Round2(base)
	conMargen := Round2(base.Mul(cien.Add(margenPct)).Div(cien))
	montoIVA := Round2(conMargen.Mul(ivaPct).Div(cien))
	final := Round2(conMargen.Add(montoIVA))

	return Desglose{
		PrecioBase:      base,
		PrecioConMargen: conMargen,
		MontoIVA:        montoIVA,
		PrecioFinal:     final,
		MargenPct:       margenPct,
		IVAPct:          ivaPct,
	}, nil
}

// Reconciliar decide entre el precio recién calculado y el que el legado trae
// precalculado. Si la discrepancia relativa es ≤ 1% se conserva el almacenado
// (el legado redondea distinto y no queremos que el precio del cliente oscile
// entre corridas); si es mayor, el margen realmente cambió y gana el cálculo.
// Con almacenado nil o no positivo siempre gana el calculado.
func Reconciliar(calculado decimal.Decimal, almacenado *decimal.Decimal) decimal.Decimal {
	if almacenado == nil || !almacenado.IsPositive() {
		return calculado
	}
	diff := calculado.Sub(*almacenado).Abs()
	if diff.Div(*almacenado).LessThanOrEqual(toleranciaReconciliacion) {
		return *almacenado
	}
	return calculado
}
