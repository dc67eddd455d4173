package plantilla

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"erppsi/internal/documento"
	"erppsi/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func contenidoBase() *Contenido {
	return &Contenido{
		Empresa:         Empresa{Nombre: "PSI Telecomunicaciones", NIT: "900123456-7"},
		NumeroContrato:  "CT-2024-0001",
		FechaInicio:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TipoPermanencia: model.SinPermanencia,
		Cliente:         ClienteInfo{Nombre: "Ana Gómez", Identificacion: "1098765432", Ciudad: "San Gil"},
		Servicios: []LineaServicio{
			{Plan: "Combo 100", Categoria: CategoriaInternet, Neto: d("50000"), IVA: d("9500"), Total: d("59500")},
			{Plan: "Combo 100", Categoria: CategoriaTelevision, Neto: d("30000"), IVA: d("5700"), Total: d("35700")},
		},
		Totales: Totales{
			Internet:   Subtotal{Neto: d("50000"), IVA: d("9500"), Total: d("59500")},
			Television: Subtotal{Neto: d("30000"), IVA: d("5700"), Total: d("35700")},
			Neto:       d("80000"), IVA: d("15200"), Total: d("95200"),
		},
		CostoInstalacion: d("120000"),
		URLVerificacion:  "https://psi.example.co/v1/contracts/1/verify-pdf",
	}
}

func textos(doc *documento.Documento) string {
	var sb strings.Builder
	for _, p := range doc.Paginas {
		for _, s := range p.Secciones {
			sb.WriteString(s.Titulo + "\n")
			for _, b := range s.Bloques {
				switch v := b.(type) {
				case documento.Parrafo:
					sb.WriteString(v.Texto + "\n")
				case documento.Tabla:
					for _, f := range v.Filas {
						sb.WriteString(strings.Join(f, "|") + "\n")
					}
				}
			}
		}
	}
	return sb.String()
}

func TestRenderizar_SinPermanenciaDosPaginas(t *testing.T) {
	doc := Renderizar(contenidoBase(), CatalogoDefault())

	require.Len(t, doc.Paginas, 2)
	assert.Equal(t, documento.Carta, doc.Opciones)
	assert.NotContains(t, textos(doc), "ANEXO DE PERMANENCIA")
}

func TestRenderizar_ConPermanenciaAgregaAnexo(t *testing.T) {
	c := contenidoBase()
	c.TipoPermanencia = model.ConPermanencia
	c.Permanencia = &Permanencia{
		Meses:            3,
		CostoInstalacion: d("120000"),
		Penalidades:      []Penalidad{{1, d("120000")}, {2, d("80000")}, {3, d("40000")}},
	}

	doc := Renderizar(c, CatalogoDefault())

	require.Len(t, doc.Paginas, 3)
	anexo := doc.Paginas[2]
	assert.Equal(t, "ANEXO DE PERMANENCIA MÍNIMA", anexo.Secciones[1].Titulo)
	texto := anexo.Secciones[1].Bloques[0].(documento.Parrafo).Texto
	assert.Contains(t, texto, "3 meses")
	assert.NotContains(t, texto, "{costo}")
	tabla := anexo.Secciones[1].Bloques[1].(documento.Tabla)
	assert.Len(t, tabla.Filas, 3)
}

func TestRenderizar_Deterministic(t *testing.T) {
	a := Renderizar(contenidoBase(), CatalogoDefault())
	b := Renderizar(contenidoBase(), CatalogoDefault())
	assert.Equal(t, a, b)

	ha, err := a.HTML()
	require.NoError(t, err)
	hb, err := b.HTML()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestRenderizar_PlaceholderSinServicios(t *testing.T) {
	c := contenidoBase()
	c.Servicios = nil
	c.SinServicios = true
	c.Totales = Totales{}

	doc := Renderizar(c, CatalogoDefault())

	require.Len(t, doc.Paginas, 2)
	assert.Contains(t, textos(doc), SinServicios)
}

func TestRenderizar_SinURLNoAgregaQR(t *testing.T) {
	c := contenidoBase()
	c.URLVerificacion = ""
	doc := Renderizar(c, CatalogoDefault())

	for _, s := range doc.Paginas[1].Secciones {
		for _, b := range s.Bloques {
			_, esQR := b.(documento.CodigoQR)
			assert.False(t, esQR)
		}
	}
}

func TestCargarCatalogo_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clausulas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("titulo: CONTRATO DE PRUEBA\n"), 0o644))

	cat, err := CargarCatalogo(path)
	require.NoError(t, err)
	assert.Equal(t, "CONTRATO DE PRUEBA", cat.Titulo)
	assert.Equal(t, SinServicios, cat.SinServicios)

	_, err = CargarCatalogo(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMoneda(t *testing.T) {
	assert.True(t, strings.HasPrefix(Moneda(d("95200")), "$ "))
	assert.Equal(t, Moneda(d("95200")), Moneda(d("95200.001")))
	assert.Equal(t, "", Fecha(time.Time{}))
	assert.Equal(t, "05/03/2024", Fecha(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
}
