// Package documento defines the page-structured markup produced by the
// contract template and consumed by the render engines.
package documento

// Documento is an ordered list of pages. Rendering the same Documento twice
// must produce the same output.
type Documento struct {
	Titulo   string
	Opciones OpcionesPagina
	Paginas  []Pagina
}

// OpcionesPagina describes paper and margins in millimetres.
type OpcionesPagina struct {
	AnchoMM  float64
	AltoMM   float64
	MargenMM float64
}

// Carta is US Letter, the paper used for contracts.
var Carta = OpcionesPagina{AnchoMM: 215.9, AltoMM: 279.4, MargenMM: 15}

// Pagina always starts on a new physical page.
type Pagina struct {
	Secciones []Seccion
}

type Seccion struct {
	Titulo  string
	Bloques []Bloque
}

// Bloque is one of Encabezado, Parrafo, CamposValor, Tabla, Lista,
// BloqueFirmas or CodigoQR.
type Bloque interface {
	tipo() string
}

// Encabezado is the company letterhead at the top of a page.
type Encabezado struct {
	Titulo    string
	Subtitulo string
	Lineas    []string
}

type Parrafo struct {
	Texto   string
	Negrita bool
	Pequeno bool
}

type Campo struct {
	Etiqueta string
	Valor    string
}

// CamposValor renders as a two-column label/value grid.
type CamposValor struct {
	Campos []Campo
}

// Tabla columns are sized by Anchos, fractions of the usable width that add
// up to 1. Pie is an optional bold footer row.
type Tabla struct {
	Columnas []string
	Anchos   []float64
	Alinear  []string // "L" | "C" | "R" per column
	Filas    [][]string
	Pie      []string
}

type Lista struct {
	Items    []string
	Numerada bool
}

type Firmante struct {
	Rol            string
	Nombre         string
	Identificacion string
}

// BloqueFirmas reserves signature lines. The signature overlay is stamped
// later on the last page, so this block only carries the printed names.
type BloqueFirmas struct {
	Firmantes []Firmante
}

// CodigoQR encodes Contenido (the verification URL).
type CodigoQR struct {
	Contenido string
	Leyenda   string
}

func (Encabezado) tipo() string   { return "encabezado" }
func (Parrafo) tipo() string      { return "parrafo" }
func (CamposValor) tipo() string  { return "campos" }
func (Tabla) tipo() string        { return "tabla" }
func (Lista) tipo() string        { return "lista" }
func (BloqueFirmas) tipo() string { return "firmas" }
func (CodigoQR) tipo() string     { return "qr" }

// Tipo exposes the block discriminator to render engines outside the package.
func Tipo(b Bloque) string { return b.tipo() }
