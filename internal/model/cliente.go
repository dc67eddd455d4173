package model

import "time"

// Cliente is read-only for this service; it is owned by the ERP core.
type Cliente struct {
	ID             uint   `gorm:"primaryKey"`
	Identificacion string `gorm:"type:varchar(30);index;not null"`
	Nombre         string `gorm:"type:varchar(150);not null"`
	Telefono       string `gorm:"type:varchar(30)"`
	Email          string `gorm:"type:varchar(150)"`
	Direccion      string `gorm:"type:varchar(200)"`
	Barrio         string `gorm:"type:varchar(100)"`
	Ciudad         string `gorm:"type:varchar(100)"`
	Estrato        int
	CreatedAt      time.Time
}

func (Cliente) TableName() string { return "clientes" }
