package model

import (
	"time"

	"gorm.io/datatypes"
)

// EventoFirma records the single signature a contract may ever receive.
// The unique index on ContratoID backs the at-most-once guarantee.
type EventoFirma struct {
	ID             uint    `gorm:"primaryKey"`
	ContratoID     uint    `gorm:"uniqueIndex;not null"`
	NombreFirmante string  `gorm:"type:varchar(150);not null"`
	CedulaFirmante string  `gorm:"type:varchar(30);not null"`
	TipoFirma      string  `gorm:"type:varchar(30);not null;default:'digital'"`
	Observacion    *string `gorm:"type:text"`
	PDFPath        string  `gorm:"column:pdf_path;not null"`
	// SHA256 of the signed artifact, hex encoded
	SHA256         string `gorm:"column:sha256;type:varchar(64);not null"`
	SHA256Original string `gorm:"column:sha256_original;type:varchar(64)"`
	FirmadoEn      time.Time
	// Contexto: request_id, ip, user_agent, usuario
	Contexto  datatypes.JSON
	CreatedAt time.Time
}

func (EventoFirma) TableName() string { return "eventos_firma" }
