package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TipoPermanencia: "con_permanencia" | "sin_permanencia"
const (
	ConPermanencia = "con_permanencia"
	SinPermanencia = "sin_permanencia"
)

// Estado del contrato: "activo" | "anulado" | "terminado"
const (
	ContratoActivo    = "activo"
	ContratoAnulado   = "anulado"
	ContratoTerminado = "terminado"
)

// Contrato is the service agreement between the ISP and a customer.
// Once Firmado is true, PDFPath points to the signed artifact and the row
// never accepts a second signature.
type Contrato struct {
	ID             uint   `gorm:"primaryKey"`
	NumeroContrato string `gorm:"type:varchar(30);uniqueIndex;not null"`
	ClienteID      uint   `gorm:"index;not null"`
	// ServicioID holds a bare integer ("12") or a JSON array ("[12,13]").
	ServicioID       string          `gorm:"type:text;column:servicio_id"`
	TipoPermanencia  string          `gorm:"type:varchar(20);not null;default:'sin_permanencia'"`
	MesesPermanencia int             `gorm:"not null;default:0"`
	CostoInstalacion decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Estado           string          `gorm:"type:varchar(20);not null;default:'activo'"`
	FechaInicio      time.Time

	Firmado        bool       `gorm:"not null;default:false"`
	FirmadoPor     *string    `gorm:"type:varchar(150)"`
	CedulaFirmante *string    `gorm:"type:varchar(30)"`
	FechaFirma     *time.Time `gorm:"column:fecha_firma"`
	// PDFPath is relative to PDF_STORAGE_PATH
	PDFPath *string `gorm:"column:pdf_path"`
	// Observaciones is an append-only audit trail, one line per event.
	Observaciones *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contrato) TableName() string { return "contratos" }

// TienePermanencia reports whether the contract carries a minimum-term clause.
func (c *Contrato) TienePermanencia() bool {
	return c.TipoPermanencia == ConPermanencia && c.MesesPermanencia > 0
}
