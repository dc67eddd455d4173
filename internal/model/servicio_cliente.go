package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de la suscripción: "activo" | "suspendido" | "cancelado"
const (
	ServicioActivo     = "activo"
	ServicioSuspendido = "suspendido"
	ServicioCancelado  = "cancelado"
)

// ServicioCliente links a customer to a plan. PrecioPersonalizado, when
// set, overrides the plan's list price.
type ServicioCliente struct {
	ID                  uint             `gorm:"primaryKey"`
	ClienteID           uint             `gorm:"index;not null"`
	PlanID              uint             `gorm:"not null"`
	Plan                Plan             `gorm:"foreignKey:PlanID"`
	PrecioPersonalizado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado              string           `gorm:"type:varchar(20);not null;default:'activo'"`
	FechaActivacion     *time.Time
	CreatedAt           time.Time
}

func (ServicioCliente) TableName() string { return "servicios_cliente" }
