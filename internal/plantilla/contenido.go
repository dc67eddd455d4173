package plantilla

import (
	"time"

	"github.com/shopspring/decimal"
)

// SinServicios is the placeholder shown when no service can be resolved.
const SinServicios = "Información del servicio no disponible"

// Bucket of a price line.
const (
	CategoriaInternet   = "internet"
	CategoriaTelevision = "television"
)

type Empresa struct {
	Nombre    string
	NIT       string
	Direccion string
	Telefono  string
	Email     string
}

type ClienteInfo struct {
	Nombre         string
	Identificacion string
	Telefono       string
	Email          string
	Direccion      string
	Barrio         string
	Ciudad         string
	Estrato        int
}

// LineaServicio is one priced line. A combo plan yields two lines, one per
// bucket. Total is always Neto + IVA.
type LineaServicio struct {
	Plan      string
	Categoria string
	Detalle   string
	Neto      decimal.Decimal
	IVA       decimal.Decimal
	Total     decimal.Decimal
}

type Subtotal struct {
	Neto  decimal.Decimal
	IVA   decimal.Decimal
	Total decimal.Decimal
}

// Totales are the bucket subtotals and their grand total. The grand totals
// are the sum of the buckets, never recomputed from rates.
type Totales struct {
	Internet   Subtotal
	Television Subtotal
	Neto       decimal.Decimal
	IVA        decimal.Decimal
	Total      decimal.Decimal
}

type Penalidad struct {
	Mes   int
	Valor decimal.Decimal
}

// Permanencia is present only for contracts with a minimum term.
type Permanencia struct {
	Meses            int
	CostoInstalacion decimal.Decimal
	Penalidades      []Penalidad
}

// Contenido is everything the contract template needs. It is produced by the
// pricing resolver and is the only input of Renderizar besides the catalogue.
type Contenido struct {
	Empresa          Empresa
	NumeroContrato   string
	FechaInicio      time.Time
	TipoPermanencia  string
	Cliente          ClienteInfo
	Servicios        []LineaServicio
	SinServicios     bool
	Totales          Totales
	CostoInstalacion decimal.Decimal
	Permanencia      *Permanencia
	URLVerificacion  string
}
