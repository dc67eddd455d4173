package infra

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"erppsi/internal/documento"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docPaginas(n int) *documento.Documento {
	doc := &documento.Documento{Titulo: "Contrato CT-1", Opciones: documento.Carta}
	for i := 0; i < n; i++ {
		doc.Paginas = append(doc.Paginas, documento.Pagina{Secciones: []documento.Seccion{{
			Titulo: "Sección con tildes y eñes",
			Bloques: []documento.Bloque{
				documento.Encabezado{Titulo: "PSI Telecomunicaciones", Subtitulo: "Contrato No. CT-1", Lineas: []string{"NIT 900"}},
				documento.Parrafo{Texto: "Texto del contrato."},
				documento.CamposValor{Campos: []documento.Campo{{Etiqueta: "Nombre", Valor: "José Peña"}}},
				documento.Tabla{Columnas: []string{"Servicio", "Total"}, Anchos: []float64{0.7, 0.3}, Filas: [][]string{{"Internet", "$ 59.500,00"}}, Pie: []string{"TOTAL", "$ 59.500,00"}},
				documento.Lista{Items: []string{"uno", "dos"}},
				documento.BloqueFirmas{Firmantes: []documento.Firmante{{Rol: "EL USUARIO", Nombre: "José"}}},
				documento.CodigoQR{Contenido: "https://psi.example.co/v", Leyenda: "Verifique"},
			},
		}}})
	}
	return doc
}

func TestFPDFEngine_PaginasYDeterminismo(t *testing.T) {
	eng := NewFPDFEngine()

	a, err := eng.Render(context.Background(), docPaginas(2))
	require.NoError(t, err)
	b, err := eng.Render(context.Background(), docPaginas(2))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(a, []byte("%PDF")))
	assert.Equal(t, a, b, "equal documents must render to equal bytes")

	n, err := ContarPaginas(a)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFPDFEngine_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFPDFEngine().Render(ctx, docPaginas(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChromiumEngine_Render(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "8.50", r.FormValue("paperWidth"))
		f, hdr, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "index.html", hdr.Filename)
		html, _ := io.ReadAll(f)
		assert.Contains(t, string(html), "Contrato CT-1")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	eng := NewChromiumEngine(srv.URL, NewCircuitBreaker(DefaultCBConfig("render")))
	out, err := eng.Render(context.Background(), docPaginas(1))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(out))
}

func TestChromiumEngine_AbreCircuito(t *testing.T) {
	var llamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&llamadas, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	eng := NewChromiumEngine(srv.URL, NewCircuitBreaker(DefaultCBConfig("render")))
	for i := 0; i < 3; i++ {
		_, err := eng.Render(context.Background(), docPaginas(1))
		require.Error(t, err)
	}
	_, err := eng.Render(context.Background(), docPaginas(1))
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(3), atomic.LoadInt32(&llamadas))
	assert.Equal(t, CBOpen, eng.Breaker().State())
}
