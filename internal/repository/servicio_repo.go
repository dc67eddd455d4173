package repository

import (
	"erppsi/internal/model"

	"gorm.io/gorm"
)

type ServicioRepository interface {
	// FindByIDsTx returns the subscriptions with their plans, ordered by id.
	// Unknown ids are silently skipped.
	FindByIDsTx(tx *gorm.DB, ids []uint) ([]model.ServicioCliente, error)
	FindActivosByClienteTx(tx *gorm.DB, clienteID uint) ([]model.ServicioCliente, error)
}

type servicioRepo struct{ db *gorm.DB }

func NewServicioRepository(db *gorm.DB) ServicioRepository {
	return &servicioRepo{db: db}
}

func (r *servicioRepo) FindByIDsTx(tx *gorm.DB, ids []uint) ([]model.ServicioCliente, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []model.ServicioCliente
	err := tx.Preload("Plan").Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

func (r *servicioRepo) FindActivosByClienteTx(tx *gorm.DB, clienteID uint) ([]model.ServicioCliente, error) {
	var out []model.ServicioCliente
	err := tx.Preload("Plan").
		Where("cliente_id = ? AND estado = ?", clienteID, model.ServicioActivo).
		Order("id").
		Find(&out).Error
	return out, err
}
