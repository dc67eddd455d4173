package infra

// render_fpdf.go: Local contract rendering using go-pdf/fpdf.
// Lays out a documento.Documento on Letter paper:
//   - Company letterhead on every page
//   - Section titles on a grey band
//   - Label/value grids, tables with footer row, numbered and bulleted lists
//   - Signature lines and the verification QR code
//   - "Página X de Y" footer
//
// Output is byte-stable for equal documents: creation dates are fixed and the
// PDF catalogue is sorted.

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"erppsi/internal/documento"

	"github.com/go-pdf/fpdf"
)

// fechaDocumento is stamped as creation/modification date of every render so
// that equal documents yield equal bytes.
var fechaDocumento = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	altoLinea  = 4.6
	altoCelda  = 5.5
	fuenteBase = 9.0
)

// FPDFEngine renders contracts in-process.
type FPDFEngine struct{}

func NewFPDFEngine() *FPDFEngine { return &FPDFEngine{} }

func (e *FPDFEngine) Nombre() string { return "fpdf" }

// Render draws doc and returns the PDF bytes. Each documento.Pagina starts
// a new physical page.
func (e *FPDFEngine) Render(ctx context.Context, doc *documento.Documento) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("fpdf: panic: %v", r)
		}
	}()

	o := doc.Opciones
	if o.AnchoMM == 0 || o.AltoMM == 0 {
		o = documento.Carta
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: o.AnchoMM, Ht: o.AltoMM},
	})
	pdf.SetMargins(o.MargenMM, o.MargenMM, o.MargenMM)
	pdf.SetAutoPageBreak(true, o.MargenMM+5)
	pdf.SetCreationDate(fechaDocumento)
	pdf.SetModificationDate(fechaDocumento)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("erppsi", true)
	pdf.SetTitle(doc.Titulo, true)
	pdf.AliasNbPages("")

	l := &lienzo{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		ancho: o.AnchoMM - 2*o.MargenMM,
		x0:    o.MargenMM,
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-o.MargenMM)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 4, l.tr(fmt.Sprintf("%s - Página %d de {nb}", doc.Titulo, pdf.PageNo())), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	for _, pag := range doc.Paginas {
		pdf.AddPage()
		for _, sec := range pag.Secciones {
			l.seccion(sec)
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("fpdf: layout: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("fpdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

// lienzo carries the layout state of one render.
type lienzo struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	ancho float64
	x0    float64
}

func (l *lienzo) fuente(estilo string, tam float64) {
	l.pdf.SetFont("Helvetica", estilo, tam)
}

func (l *lienzo) seccion(s documento.Seccion) {
	if s.Titulo != "" {
		l.pdf.Ln(1.5)
		l.fuente("B", 9.5)
		l.pdf.SetFillColor(230, 230, 230)
		l.pdf.CellFormat(l.ancho, 6, l.tr(s.Titulo), "", 1, "L", true, 0, "")
		l.pdf.Ln(1)
	}
	for _, b := range s.Bloques {
		switch v := b.(type) {
		case documento.Encabezado:
			l.encabezado(v)
		case documento.Parrafo:
			l.parrafo(v)
		case documento.CamposValor:
			l.campos(v)
		case documento.Tabla:
			l.tabla(v)
		case documento.Lista:
			l.lista(v)
		case documento.BloqueFirmas:
			l.firmas(v)
		case documento.CodigoQR:
			l.qr(v)
		}
	}
}

func (l *lienzo) encabezado(e documento.Encabezado) {
	l.fuente("B", 13)
	l.pdf.CellFormat(l.ancho, 7, l.tr(e.Titulo), "", 1, "C", false, 0, "")
	l.fuente("", 10)
	l.pdf.CellFormat(l.ancho, 5, l.tr(e.Subtitulo), "", 1, "C", false, 0, "")
	l.fuente("", 7)
	for _, ln := range e.Lineas {
		l.pdf.CellFormat(l.ancho, 3.5, l.tr(ln), "", 1, "C", false, 0, "")
	}
	l.pdf.Ln(1)
	y := l.pdf.GetY()
	l.pdf.Line(l.x0, y, l.x0+l.ancho, y)
	l.pdf.Ln(1)
}

func (l *lienzo) parrafo(p documento.Parrafo) {
	estilo, tam := "", fuenteBase
	if p.Negrita {
		estilo = "B"
	}
	if p.Pequeno {
		tam = 7
		l.pdf.SetTextColor(90, 90, 90)
	}
	l.fuente(estilo, tam)
	l.pdf.MultiCell(l.ancho, altoLinea, l.tr(p.Texto), "", "J", false)
	l.pdf.SetTextColor(0, 0, 0)
}

func (l *lienzo) campos(c documento.CamposValor) {
	anchoEtiqueta := l.ancho * 0.32
	for _, campo := range c.Campos {
		l.fuente("B", fuenteBase)
		l.pdf.CellFormat(anchoEtiqueta, altoCelda, l.tr(campo.Etiqueta+":"), "", 0, "L", false, 0, "")
		l.fuente("", fuenteBase)
		l.pdf.MultiCell(l.ancho-anchoEtiqueta, altoCelda, l.tr(campo.Valor), "", "L", false)
	}
}

func (l *lienzo) tabla(t documento.Tabla) {
	anchos := make([]float64, len(t.Columnas))
	for i := range anchos {
		if i < len(t.Anchos) {
			anchos[i] = t.Anchos[i] * l.ancho
		} else {
			anchos[i] = l.ancho / float64(len(anchos))
		}
	}
	alinear := func(i int) string {
		if i < len(t.Alinear) && t.Alinear[i] != "" {
			return t.Alinear[i]
		}
		return "L"
	}
	fila := func(celdas []string, fill bool) {
		for i := range anchos {
			txt := ""
			if i < len(celdas) {
				txt = celdas[i]
			}
			ln := 0
			if i == len(anchos)-1 {
				ln = 1
			}
			l.pdf.CellFormat(anchos[i], altoCelda, l.tr(txt), "1", ln, alinear(i), fill, 0, "")
		}
	}

	l.fuente("B", 8.5)
	l.pdf.SetFillColor(240, 240, 240)
	fila(t.Columnas, true)
	l.fuente("", 8.5)
	for _, f := range t.Filas {
		fila(f, false)
	}
	if len(t.Pie) > 0 {
		l.fuente("B", 8.5)
		fila(t.Pie, true)
	}
	l.pdf.Ln(1.5)
}

func (l *lienzo) lista(li documento.Lista) {
	l.fuente("", fuenteBase)
	for i, item := range li.Items {
		marca := "•"
		if li.Numerada {
			marca = fmt.Sprintf("%d.", i+1)
		}
		l.pdf.CellFormat(6, altoLinea, l.tr(marca), "", 0, "R", false, 0, "")
		l.pdf.SetX(l.x0 + 7)
		l.pdf.MultiCell(l.ancho-7, altoLinea, l.tr(item), "", "L", false)
	}
	l.pdf.Ln(1)
}

func (l *lienzo) firmas(f documento.BloqueFirmas) {
	if len(f.Firmantes) == 0 {
		return
	}
	col := l.ancho / float64(len(f.Firmantes))
	l.pdf.Ln(14)
	renglon := func(estilo string, campo func(documento.Firmante) string) {
		l.fuente(estilo, 8)
		for i, fm := range f.Firmantes {
			ln := 0
			if i == len(f.Firmantes)-1 {
				ln = 1
			}
			l.pdf.CellFormat(col, 4, l.tr(campo(fm)), "", ln, "C", false, 0, "")
		}
	}
	renglon("", func(documento.Firmante) string { return "______________________________" })
	renglon("B", func(fm documento.Firmante) string { return fm.Rol })
	renglon("", func(fm documento.Firmante) string { return fm.Nombre })
	renglon("", func(fm documento.Firmante) string { return fm.Identificacion })
	l.pdf.Ln(2)
}

func (l *lienzo) qr(q documento.CodigoQR) {
	png, err := documento.QRPNG(q.Contenido)
	if err != nil {
		l.pdf.SetError(fmt.Errorf("qr: %w", err))
		return
	}
	sum := sha1.Sum([]byte(q.Contenido))
	nombre := "qr-" + hex.EncodeToString(sum[:8])
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	l.pdf.RegisterImageOptionsReader(nombre, opts, bytes.NewReader(png))

	const lado = 24.0
	x, y := l.x0, l.pdf.GetY()+2
	l.pdf.ImageOptions(nombre, x, y, lado, lado, false, opts, 0, "")
	l.pdf.SetXY(x+lado+3, y+lado/2-3)
	l.fuente("", 7)
	l.pdf.MultiCell(l.ancho-lado-3, 3.5, l.tr(q.Leyenda+"\n"+q.Contenido), "", "L", false)
	l.pdf.SetY(y + lado + 2)
}
