package repository

import (
	"context"
	"errors"
	"time"

	"erppsi/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrYaFirmado is returned by MarcarFirmadoTx when the conditional update
// matched no unsigned row.
var ErrYaFirmado = errors.New("contrato ya firmado")

// DatosFirma are the columns written when a contract becomes signed.
type DatosFirma struct {
	PDFPath        string
	FirmadoPor     string
	CedulaFirmante string
	FechaFirma     time.Time
	Nota           string
}

type ContratoRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Contrato, error)
	// FindByIDTx loads the contract inside tx. With bloquear it takes a
	// row lock (SELECT ... FOR UPDATE) where the dialect supports it.
	FindByIDTx(tx *gorm.DB, id uint, bloquear bool) (*model.Contrato, error)
	// UpdatePDFPathTx records path only while the contract is unsigned and
	// its pdf_path still equals anterior (nil meaning unset). It reports
	// whether the row was updated.
	UpdatePDFPathTx(tx *gorm.DB, id uint, anterior *string, path string) (bool, error)
	MarcarFirmadoTx(tx *gorm.DB, id uint, d DatosFirma) error
	CreateEventoFirmaTx(tx *gorm.DB, e *model.EventoFirma) error
	FindEventoFirma(ctx context.Context, contratoID uint) (*model.EventoFirma, error)
	DB() *gorm.DB
}

type contratoRepo struct{ db *gorm.DB }

func NewContratoRepository(db *gorm.DB) ContratoRepository {
	return &contratoRepo{db: db}
}

func (r *contratoRepo) DB() *gorm.DB { return r.db }

func (r *contratoRepo) FindByID(ctx context.Context, id uint) (*model.Contrato, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id, false)
}

func (r *contratoRepo) FindByIDTx(tx *gorm.DB, id uint, bloquear bool) (*model.Contrato, error) {
	q := tx
	if bloquear && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c model.Contrato
	if err := q.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contratoRepo) UpdatePDFPathTx(tx *gorm.DB, id uint, anterior *string, path string) (bool, error) {
	q := tx.Model(&model.Contrato{}).Where("id = ? AND firmado = ?", id, false)
	if anterior == nil {
		q = q.Where("pdf_path IS NULL")
	} else {
		q = q.Where("pdf_path = ?", *anterior)
	}
	res := q.Update("pdf_path", path)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarcarFirmadoTx flips firmado only if it is still false and appends
// d.Nota as a new line of observaciones.
func (r *contratoRepo) MarcarFirmadoTx(tx *gorm.DB, id uint, d DatosFirma) error {
	res := tx.Model(&model.Contrato{}).
		Where("id = ? AND firmado = ?", id, false).
		Updates(map[string]interface{}{
			"firmado":         true,
			"pdf_path":        d.PDFPath,
			"firmado_por":     d.FirmadoPor,
			"cedula_firmante": d.CedulaFirmante,
			"fecha_firma":     d.FechaFirma,
			"observaciones": gorm.Expr(
				"CASE WHEN COALESCE(observaciones, '') = '' THEN ? ELSE observaciones || ? END",
				d.Nota, "\n"+d.Nota),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrYaFirmado
	}
	return nil
}

func (r *contratoRepo) CreateEventoFirmaTx(tx *gorm.DB, e *model.EventoFirma) error {
	return tx.Create(e).Error
}

func (r *contratoRepo) FindEventoFirma(ctx context.Context, contratoID uint) (*model.EventoFirma, error) {
	var e model.EventoFirma
	if err := r.db.WithContext(ctx).Where("contrato_id = ?", contratoID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
