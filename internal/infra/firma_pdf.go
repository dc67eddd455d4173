package infra

// firma_pdf.go: Signature embedding.
// Re-lays every page of an existing PDF with gofpdi and stamps the
// handwritten signature image plus an attestation text block on the LAST
// page, bottom-right. Earlier pages are copied untouched.

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"erppsi/internal/apierror"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
)

// Overlay geometry in points.
const (
	firmaAncho   = 150.0
	firmaAlto    = 60.0
	firmaMargen  = 40.0
	textoBloque  = 50.0
	maxObsRunes  = 30
	cajaMediaBox = "/MediaBox"
)

// Atestacion is the text printed under the signature image.
type Atestacion struct {
	NombreFirmante string
	CedulaFirmante string
	Fecha          time.Time
	Observacion    string
}

// Estampado is the result of embedding a signature. Pagina is the 1-based
// page that received the overlay and always equals Paginas.
type Estampado struct {
	PDF     []byte
	Pagina  int
	Paginas int
}

// Estampador embeds signatures into existing PDFs.
type Estampador struct{}

func NewEstampador() *Estampador { return &Estampador{} }

// Estampar returns a new PDF equal to src with the signature overlay on the
// last page. The image may be PNG or JPEG; anything else yields
// apierror.ErrUnsupportedImageFormat.
func (e *Estampador) Estampar(src, imagen []byte, at Atestacion) (*Estampado, error) {
	firmaPNG, err := normalizarImagen(imagen)
	if err != nil {
		return nil, err
	}

	out, pagina, paginas, err := estampar(src, firmaPNG, at)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindRenderFailure, "No se pudo firmar el PDF del contrato", err)
	}
	return &Estampado{PDF: out, Pagina: pagina, Paginas: paginas}, nil
}

// normalizarImagen decodes PNG first, then JPEG, and re-encodes the result
// as 8-bit non-interlaced NRGBA PNG, the only flavour fpdf embeds reliably.
func normalizarImagen(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, apierror.Wrap(apierror.KindUnsupportedImageFormat, "", fmt.Errorf("imagen vacia"))
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		var jerr error
		img, jerr = jpeg.Decode(bytes.NewReader(b))
		if jerr != nil {
			return nil, apierror.Wrap(apierror.KindUnsupportedImageFormat, "", fmt.Errorf("png: %v; jpeg: %v", err, jerr))
		}
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, apierror.Wrap(apierror.KindUnsupportedImageFormat, "", err)
	}
	return buf.Bytes(), nil
}

func estampar(src, firmaPNG []byte, at Atestacion) (out []byte, pagina, paginas int, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, pagina, paginas, err = nil, 0, 0, fmt.Errorf("gofpdi: %v", r)
		}
	}()

	pdf := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: fpdf.SizeType{Wd: 612, Ht: 792}})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(at.Fecha)
	pdf.SetModificationDate(at.Fecha)
	pdf.SetCatalogSort(true)

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	primera := imp.ImportPageFromStream(pdf, &rs, 1, cajaMediaBox)
	tamanos := imp.GetPageSizes()
	paginas = len(tamanos)
	if paginas == 0 {
		return nil, 0, 0, fmt.Errorf("pdf sin paginas")
	}

	for p := 1; p <= paginas; p++ {
		tpl := primera
		if p > 1 {
			tpl = imp.ImportPageFromStream(pdf, &rs, p, cajaMediaBox)
		}
		w, h := tamanos[p][cajaMediaBox]["w"], tamanos[p][cajaMediaBox]["h"]
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
		if p == paginas {
			superponerFirma(pdf, firmaPNG, at, w, h)
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, 0, 0, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), paginas, paginas, nil
}

func superponerFirma(pdf *fpdf.Fpdf, firmaPNG []byte, at Atestacion, w, h float64) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("firma", opts, bytes.NewReader(firmaPNG))

	x := w - firmaMargen - firmaAncho
	y := h - firmaMargen - textoBloque - firmaAlto
	pdf.ImageOptions("firma", x, y, firmaAncho, firmaAlto, false, opts, 0, "")

	pdf.SetXY(x, y+firmaAlto+2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(firmaAncho, 9, tr("Firmado digitalmente por"), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(firmaAncho, 9, tr(at.NombreFirmante), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(firmaAncho, 9, tr("CC: "+at.CedulaFirmante), "", 2, "L", false, 0, "")
	pdf.CellFormat(firmaAncho, 9, tr("Fecha: "+at.Fecha.Format("02/01/2006")), "", 2, "L", false, 0, "")
	if obs := truncar(at.Observacion, maxObsRunes); obs != "" {
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(firmaAncho, 8, tr(obs), "", 2, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ContarPaginas reports the number of pages in a PDF.
func ContarPaginas(src []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("gofpdi: %v", r)
		}
	}()
	pdf := fpdf.New("P", "pt", "Letter", "")
	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	imp.ImportPageFromStream(pdf, &rs, 1, cajaMediaBox)
	return len(imp.GetPageSizes()), nil
}
