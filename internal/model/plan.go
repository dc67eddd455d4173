package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipo de plan: "internet" | "television" | "combo"
const (
	PlanInternet   = "internet"
	PlanTelevision = "television"
	PlanCombo      = "combo"
)

// Plan is a catalogue entry. Prices are net of tax. For combos,
// PrecioInternet and PrecioTelevision carry the per-bucket split of Precio.
type Plan struct {
	ID               uint            `gorm:"primaryKey"`
	Nombre           string          `gorm:"type:varchar(120);not null"`
	Tipo             string          `gorm:"type:varchar(20);not null"`
	Precio           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioInternet   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecioTelevision decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	VelocidadBajada  int             // Mbps
	VelocidadSubida  int             // Mbps
	CanalesTV        int             `gorm:"column:canales_tv"`
	Activo           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
}

func (Plan) TableName() string { return "planes" }
