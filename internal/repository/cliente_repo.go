package repository

import (
	"erppsi/internal/model"

	"gorm.io/gorm"
)

type ClienteRepository interface {
	FindByIDTx(tx *gorm.DB, id uint) (*model.Cliente, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository {
	return &clienteRepo{db: db}
}

func (r *clienteRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Cliente, error) {
	var c model.Cliente
	if err := tx.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
