package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalcular_EjemploCanonico(t *testing.T) {
	// base=100.00, margen=25, iva=16 ⇒ 125.00 / 20.00 / 145.00
	d, err := Calcular(dec("100.00"), dec("25"), dec("16"))
	require.NoError(t, err)

	assert.True(t, d.PrecioBase.Equal(dec("100.00")), "base: %s", d.PrecioBase)
	assert.True(t, d.PrecioConMargen.Equal(dec("125.00")), "con margen: %s", d.PrecioConMargen)
	assert.True(t, d.MontoIVA.Equal(dec("20.00")), "iva: %s", d.MontoIVA)
	assert.True(t, d.PrecioFinal.Equal(dec("145.00")), "final: %s", d.PrecioFinal)
}

func TestCalcular_RedondeoPorPaso(t *testing.T) {
	// 10.05 × 1.135 = 11.40675 → 11.41 (no 11.40): el redondeo ocurre sobre
	// el precio con margen antes de aplicar IVA.
	d, err := Calcular(dec("10.05"), dec("13.5"), dec("16"))
	require.NoError(t, err)
	assert.True(t, d.PrecioConMargen.Equal(dec("11.41")), "con margen: %s", d.PrecioConMargen)
	// 11.41 × 0.16 = 1.8256 → 1.83
	assert.True(t, d.MontoIVA.Equal(dec("1.83")), "iva: %s", d.MontoIVA)
	assert.True(t, d.PrecioFinal.Equal(dec("13.24")), "final: %s", d.PrecioFinal)
}

func TestCalcular_MitadHaciaArriba(t *testing.T) {
	// 2.005 debe redondear a 2.01, no a 2.00.
	d, err := Calcular(dec("2.005"), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, d.PrecioBase.Equal(dec("2.01")), "base: %s", d.PrecioBase)
}

func TestCalcular_MargenNegativoEsDescuento(t *testing.T) {
	d, err := Calcular(dec("100"), dec("-10"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, d.PrecioFinal.Equal(dec("90.00")), "final: %s", d.PrecioFinal)
}

func TestCalcular_IVACeroEquivaleAConvencionEmbebida(t *testing.T) {
	d, err := Calcular(dec("100"), dec("25"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, d.MontoIVA.IsZero())
	assert.True(t, d.PrecioFinal.Equal(dec("125.00")))
}

func TestCalcular_BaseNegativa(t *testing.T) {
	_, err := Calcular(dec("-0.01"), dec("25"), dec("16"))
	assert.ErrorIs(t, err, ErrPrecioBaseNegativo)
}

func TestCalcular_IVAFueraDeRango(t *testing.T) {
	_, err := Calcular(dec("10"), dec("25"), dec("101"))
	assert.ErrorIs(t, err, ErrIVAInvalido)

	_, err = Calcular(dec("10"), dec("25"), dec("-1"))
	assert.ErrorIs(t, err, ErrIVAInvalido)
}

func TestCalcular_SalidasSonMultiplosDeCentavo(t *testing.T) {
	cases := []struct{ base, margen, iva string }{
		{"0", "0", "0"},
		{"0.01", "33.333", "16"},
		{"999999.99", "7.77", "8"},
		{"19.99", "-3.5", "0"},
		{"123.456", "12.5", "16"},
	}
	cent := dec("0.01")
	for _, c := range cases {
		d, err := Calcular(dec(c.base), dec(c.margen), dec(c.iva))
		require.NoError(t, err)
		for _, v := range []decimal.Decimal{d.PrecioBase, d.PrecioConMargen, d.MontoIVA, d.PrecioFinal} {
			assert.True(t, v.Mod(cent).IsZero(), "base=%s margen=%s iva=%s ⇒ %s no es múltiplo de 0.01",
				c.base, c.margen, c.iva, v)
		}
	}
}

func TestCalcular_Determinista(t *testing.T) {
	a, err := Calcular(dec("57.30"), dec("18.25"), dec("16"))
	require.NoError(t, err)
	b, err := Calcular(dec("57.30"), dec("18.25"), dec("16"))
	require.NoError(t, err)
	assert.True(t, a.PrecioFinal.Equal(b.PrecioFinal))
	assert.True(t, a.MontoIVA.Equal(b.MontoIVA))
}

func TestReconciliar_SinAlmacenadoDevuelveCalculado(t *testing.T) {
	calc := dec("145.00")
	assert.True(t, Reconciliar(calc, nil).Equal(calc))
}

func TestReconciliar_DentroDeToleranciaGanaAlmacenado(t *testing.T) {
	calc := dec("100.00")
	almacenado := dec("100.99") // 0.98% de diferencia
	got := Reconciliar(calc, &almacenado)
	assert.True(t, got.Equal(almacenado), "got %s", got)

	// Exactamente 1% también se conserva.
	exacto := dec("101.00")
	got = Reconciliar(dec("99.99"), &exacto) // |99.99-101|/101 ≈ 1.0%
	assert.True(t, got.Equal(exacto), "got %s", got)
}

func TestReconciliar_FueraDeToleranciaGanaCalculado(t *testing.T) {
	calc := dec("110.00")
	almacenado := dec("100.00") // 10% de diferencia: el margen cambió de verdad
	got := Reconciliar(calc, &almacenado)
	assert.True(t, got.Equal(calc), "got %s", got)
}

func TestReconciliar_AlmacenadoNoPositivo(t *testing.T) {
	calc := dec("50.00")
	cero := decimal.Zero
	assert.True(t, Reconciliar(calc, &cero).Equal(calc))

	neg := dec("-1")
	assert.True(t, Reconciliar(calc, &neg).Equal(calc))
}
