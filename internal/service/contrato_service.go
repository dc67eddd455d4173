package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erppsi/internal/apierror"
	"erppsi/internal/documento"
	"erppsi/internal/dto"
	"erppsi/internal/infra"
	"erppsi/internal/model"
	"erppsi/internal/plantilla"
	"erppsi/internal/repository"
	"erppsi/internal/worker"

	"gorm.io/gorm"
)

// ContratoService covers the contract document lifecycle: materializing the
// PDF, signing it exactly once, and read-only verification and retrieval.
type ContratoService interface {
	Materializar(ctx context.Context, contratoID uint) (*Artefacto, error)
	AbrirParaFirma(ctx context.Context, contratoID uint) (*dto.AbrirParaFirmaResponse, error)
	Firmar(ctx context.Context, contratoID uint, sol SolicitudFirma) (*dto.FirmaResponse, error)
	VerificarPDF(ctx context.Context, contratoID uint) (*dto.VerificarPDFResponse, error)
	DescargarPDF(ctx context.Context, contratoID uint) (*Artefacto, error)
	ObtenerEventoFirma(ctx context.Context, contratoID uint) (*dto.EventoFirmaResponse, error)
}

// MotorRender turns markup into PDF bytes.
type MotorRender interface {
	Render(ctx context.Context, doc *documento.Documento) ([]byte, error)
}

// EstampadorFirma embeds a signature image on the last page of a PDF.
type EstampadorFirma interface {
	Estampar(pdf, imagen []byte, at infra.Atestacion) (*infra.Estampado, error)
}

// AlmacenArtefactos persists artifacts under paths relative to its root.
type AlmacenArtefactos interface {
	Guardar(nombre string, data []byte) (string, error)
	Leer(rel string) ([]byte, error)
	Existe(rel string) (bool, int64, error)
	Eliminar(rel string) error
}

// DespachadorFirmas enqueues post-signature work. May be nil.
type DespachadorFirmas interface {
	EnqueueContratoFirmado(ctx context.Context, p worker.ContratoFirmadoPayload) error
}

// Artefacto is a contract PDF served to a client.
type Artefacto struct {
	PDF            []byte
	Path           string
	NumeroContrato string
	Firmado        bool
	// Generado is false when the stored artifact was reused.
	Generado bool
	// Archivo is the download filename.
	Archivo string
}

type contratoService struct {
	db          *gorm.DB
	contratos   repository.ContratoRepository
	clientes    repository.ClienteRepository
	servicios   repository.ServicioRepository
	resolvedor  *Resolvedor
	catalogo    *plantilla.Catalogo
	motor       MotorRender
	estampador  EstampadorFirma
	almacen     AlmacenArtefactos
	despachador DespachadorFirmas
	now         func() time.Time
}

// ContratoServiceConfig carries the non-repository collaborators.
type ContratoServiceConfig struct {
	Empresa     plantilla.Empresa
	BaseURL     string
	Catalogo    *plantilla.Catalogo
	Motor       MotorRender
	Estampador  EstampadorFirma
	Almacen     AlmacenArtefactos
	Despachador DespachadorFirmas
}

func NewContratoService(
	db *gorm.DB,
	contratos repository.ContratoRepository,
	clientes repository.ClienteRepository,
	servicios repository.ServicioRepository,
	cfg ContratoServiceConfig,
) ContratoService {
	cat := cfg.Catalogo
	if cat == nil {
		cat = plantilla.CatalogoDefault()
	}
	return &contratoService{
		db:          db,
		contratos:   contratos,
		clientes:    clientes,
		servicios:   servicios,
		resolvedor:  NewResolvedor(clientes, servicios, cfg.Empresa, cfg.BaseURL),
		catalogo:    cat,
		motor:       cfg.Motor,
		estampador:  cfg.Estampador,
		almacen:     cfg.Almacen,
		despachador: cfg.Despachador,
		now:         time.Now,
	}
}

// runTx runs fn in a DB transaction; any error rolls it back.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// cargarTx loads the contract, mapping a missing row to ContractNotFound.
func (s *contratoService) cargarTx(tx *gorm.DB, id uint, bloquear bool) (*model.Contrato, error) {
	c, err := s.contratos.FindByIDTx(tx, id, bloquear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Wrap(apierror.KindContractNotFound, "", err)
		}
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}
	return c, nil
}

// numeroArchivo makes a contract number safe for file names. Letters,
// digits and '-' pass through; every other byte becomes ~XX (upper hex),
// so distinct numbers never share a file and '_' stays free as separator.
func numeroArchivo(numero string) string {
	var b strings.Builder
	for i := 0; i < len(numero); i++ {
		ch := numero[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-':
			b.WriteByte(ch)
		default:
			fmt.Fprintf(&b, "~%02X", ch)
		}
	}
	return b.String()
}

// clasificar turns any error into an *apierror.Error; unclassified
// errors become TransactionFailure.
func clasificar(err error) error {
	if err == nil || apierror.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apierror.Wrap(apierror.KindTransactionFailure, "Operacion cancelada", err)
	}
	return apierror.Wrap(apierror.KindTransactionFailure, "", err)
}
