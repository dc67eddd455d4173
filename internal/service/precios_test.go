package service

import (
	"testing"

	"erppsi/internal/apierror"
	"erppsi/internal/model"
	"erppsi/internal/plantilla"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServicioRef(t *testing.T) {
	tests := []struct {
		raw  string
		kind RefKind
		ids  []uint
	}{
		{"12", RefUnica, []uint{12}},
		{" 7 ", RefUnica, []uint{7}},
		{"[12,13]", RefMultiple, []uint{12, 13}},
		{"[ 4 ]", RefMultiple, []uint{4}},
		{"", RefVacia, nil},
		{"   ", RefVacia, nil},
	}
	for _, tt := range tests {
		ref, err := ParseServicioRef(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.kind, ref.Kind, tt.raw)
		assert.Equal(t, tt.ids, ref.IDs, tt.raw)
	}

	for _, raw := range []string{"abc", "0", "-3", "1.5", "[]", "[1,", `["1"]`, "[0]", "{}", "12abc"} {
		_, err := ParseServicioRef(raw)
		assert.ErrorIs(t, err, apierror.ErrMalformedServiceReference, raw)
	}
}

func TestLineas_PerPlanType(t *testing.T) {
	internet := model.ServicioCliente{Plan: model.Plan{Nombre: "Fibra 200", Tipo: model.PlanInternet, Precio: dec("65000"), VelocidadBajada: 200, VelocidadSubida: 50}}
	ls := lineas(internet)
	require.Len(t, ls, 1)
	assert.Equal(t, plantilla.CategoriaInternet, ls[0].Categoria)
	assert.Equal(t, "200 Mbps bajada / 50 Mbps subida", ls[0].Detalle)
	assertDec(t, "12350", ls[0].IVA)

	override := dec("59999.99")
	internet.PrecioPersonalizado = &override
	ls = lineas(internet)
	assertDec(t, "59999.99", ls[0].Neto)
	assertDec(t, "11400", ls[0].IVA)
	assertDec(t, "71399.99", ls[0].Total)

	tv := model.ServicioCliente{Plan: model.Plan{Nombre: "TV", Tipo: model.PlanTelevision, Precio: dec("30000"), CanalesTV: 90}}
	ls = lineas(tv)
	require.Len(t, ls, 1)
	assert.Equal(t, plantilla.CategoriaTelevision, ls[0].Categoria)
	assert.Equal(t, "90 canales", ls[0].Detalle)
}

func TestDividirCombo(t *testing.T) {
	combo := model.ServicioCliente{Plan: planCombo()}
	i, tv := dividirCombo(combo)
	assertDec(t, "50000", i)
	assertDec(t, "30000", tv)

	// Odd override: internet share is rounded, television takes the rest.
	o := dec("99999.99")
	combo.PrecioPersonalizado = &o
	i, tv = dividirCombo(combo)
	assertDec(t, "62499.99", i)
	assertDec(t, "37500", tv)
	assert.True(t, i.Add(tv).Equal(o))

	// No sub-prices: the whole price is internet.
	sinSub := model.ServicioCliente{Plan: model.Plan{Tipo: model.PlanCombo, Precio: dec("70000")}}
	i, tv = dividirCombo(sinSub)
	assertDec(t, "70000", i)
	assert.True(t, tv.IsZero())
}

func TestTotalizar_SumsDisplayedFigures(t *testing.T) {
	ls := []plantilla.LineaServicio{
		linea("a", plantilla.CategoriaInternet, "", dec("33333.33")),
		linea("b", plantilla.CategoriaInternet, "", dec("16666.67")),
		linea("c", plantilla.CategoriaTelevision, "", dec("0.05")),
	}
	tot := totalizar(ls)
	assertDec(t, "6333.33", ls[0].IVA)
	assertDec(t, "3166.67", ls[1].IVA)
	assertDec(t, "0.01", ls[2].IVA)
	assertDec(t, "9500", tot.Internet.IVA)
	assertDec(t, "9500.01", tot.IVA)
	assert.True(t, tot.Internet.Total.Add(tot.Television.Total).Equal(tot.Total))
	assert.True(t, tot.Neto.Add(tot.IVA).Equal(tot.Total))
}

func TestTotalizar_TaxPerBucket(t *testing.T) {
	ls := []plantilla.LineaServicio{
		linea("a", plantilla.CategoriaInternet, "", dec("10.03")),
		linea("b", plantilla.CategoriaInternet, "", dec("10.03")),
	}
	tot := totalizar(ls)
	assertDec(t, "1.91", ls[0].IVA)
	assertDec(t, "20.06", tot.Internet.Neto)
	assertDec(t, "3.81", tot.Internet.IVA, "round2(20.06 x 0.19), not 1.91 + 1.91")
	assertDec(t, "23.87", tot.Internet.Total)
	assertDec(t, "3.81", tot.IVA)
	assert.True(t, tot.Television.Total.IsZero())
	assert.True(t, tot.Internet.Total.Add(tot.Television.Total).Equal(tot.Total))
}

func TestPermanencia(t *testing.T) {
	c := &model.Contrato{TipoPermanencia: model.SinPermanencia, MesesPermanencia: 12, CostoInstalacion: dec("100000")}
	assert.Nil(t, permanencia(c))

	c.TipoPermanencia = model.ConPermanencia
	c.MesesPermanencia = 3
	p := permanencia(c)
	require.NotNil(t, p)
	require.Len(t, p.Penalidades, 3)
	assertDec(t, "100000", p.Penalidades[0].Valor)
	assertDec(t, "66666.67", p.Penalidades[1].Valor)
	assertDec(t, "33333.33", p.Penalidades[2].Valor)
}
