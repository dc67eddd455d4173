package service

import (
	"context"
	"errors"

	"erppsi/internal/apierror"
	"erppsi/internal/dto"
	"erppsi/internal/model"
	"erppsi/internal/plantilla"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	msgListoParaFirma = "Contrato listo para firma"
	msgYaFirmado      = "El contrato ya fue firmado y no admite una nueva firma"
)

// VerificarPDF is a stat-only check of the recorded artifact. It never
// renders, so artifactExists=false is reported even for signed contracts
// whose file went missing.
func (s *contratoService) VerificarPDF(ctx context.Context, contratoID uint) (*dto.VerificarPDFResponse, error) {
	c, err := s.cargarTx(s.db.WithContext(ctx), contratoID, false)
	if err != nil {
		return nil, err
	}
	existe, tam := s.existeArtefacto(c)
	return &dto.VerificarPDFResponse{
		ContractID:     c.ID,
		ContractNumber: c.NumeroContrato,
		ArtifactExists: existe,
		SizeBytes:      tam,
		Signed:         c.Firmado,
	}, nil
}

// DescargarPDF serves the recorded artifact. Unlike Materializar it never
// renders: no file at the recorded path is ArtifactNotFound.
func (s *contratoService) DescargarPDF(ctx context.Context, contratoID uint) (*Artefacto, error) {
	c, err := s.cargarTx(s.db.WithContext(ctx), contratoID, false)
	if err != nil {
		return nil, err
	}
	art, ok := s.reutilizar(c)
	if !ok {
		return nil, apierror.Wrap(apierror.KindArtifactNotFound, "", nil)
	}
	return art, nil
}

// AbrirParaFirma aggregates what a signer must see before signing. An
// already signed contract yields the same bundle with a status message.
func (s *contratoService) AbrirParaFirma(ctx context.Context, contratoID uint) (*dto.AbrirParaFirmaResponse, error) {
	db := s.db.WithContext(ctx)
	c, err := s.cargarTx(db, contratoID, false)
	if err != nil {
		return nil, err
	}
	cli, err := s.clientes.FindByIDTx(db, c.ClienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Wrap(apierror.KindContractNotFound, "Cliente del contrato no encontrado", err)
		}
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}
	activos, err := s.servicios.FindActivosByClienteTx(db, c.ClienteID)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}
	cont, err := s.resolvedor.ResolverTx(db, c)
	if err != nil {
		return nil, clasificar(err)
	}

	existe, _ := s.existeArtefacto(c)
	out := &dto.AbrirParaFirmaResponse{
		Contract: resumenContrato(c),
		Customer: dto.ClienteResumen{
			ID:       cli.ID,
			Name:     cli.Nombre,
			IDNumber: cli.Identificacion,
			Phone:    cli.Telefono,
			Email:    cli.Email,
			Address:  cli.Direccion,
			City:     cli.Ciudad,
		},
		Services:       make([]dto.ServicioResumen, 0, len(activos)),
		Pricing:        resumenPrecios(cont),
		ArtifactExists: existe,
		Signed:         c.Firmado,
		Message:        msgListoParaFirma,
	}
	if c.Firmado {
		out.Message = msgYaFirmado
	}
	for _, sc := range activos {
		out.Services = append(out.Services, dto.ServicioResumen{
			ID:          sc.ID,
			PlanName:    sc.Plan.Nombre,
			PlanType:    sc.Plan.Tipo,
			ListPrice:   sc.Plan.Precio,
			CustomPrice: sc.PrecioPersonalizado,
			Status:      sc.Estado,
		})
	}
	return out, nil
}

// ObtenerEventoFirma returns the audit record of the contract's signature.
func (s *contratoService) ObtenerEventoFirma(ctx context.Context, contratoID uint) (*dto.EventoFirmaResponse, error) {
	c, err := s.cargarTx(s.db.WithContext(ctx), contratoID, false)
	if err != nil {
		return nil, err
	}
	ev, err := s.contratos.FindEventoFirma(ctx, c.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Wrap(apierror.KindContractNotFound, "El contrato no registra firma", err)
		}
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}
	return &dto.EventoFirmaResponse{
		ContractID:     ev.ContratoID,
		SignerName:     ev.NombreFirmante,
		SignerIDNumber: ev.CedulaFirmante,
		SignatureType:  ev.TipoFirma,
		Observation:    ev.Observacion,
		ArtifactPath:   ev.PDFPath,
		SHA256:         ev.SHA256,
		OriginalSHA256: ev.SHA256Original,
		SignedAt:       ev.FirmadoEn,
	}, nil
}

func (s *contratoService) existeArtefacto(c *model.Contrato) (bool, int64) {
	if c.PDFPath == nil || *c.PDFPath == "" {
		return false, 0
	}
	ok, tam, err := s.almacen.Existe(*c.PDFPath)
	if err != nil {
		log.Warn().Uint("contrato_id", c.ID).Str("path", *c.PDFPath).Err(err).Msg("no se pudo verificar el PDF")
		return false, 0
	}
	return ok, tam
}

func resumenContrato(c *model.Contrato) dto.ContratoResumen {
	r := dto.ContratoResumen{
		ID:                c.ID,
		ContractNumber:    c.NumeroContrato,
		Status:            c.Estado,
		MinimumTermType:   c.TipoPermanencia,
		MinimumTermMonths: c.MesesPermanencia,
		InstallationCost:  c.CostoInstalacion,
		Signed:            c.Firmado,
		SignedBy:          c.FirmadoPor,
		SignedAt:          c.FechaFirma,
	}
	if !c.FechaInicio.IsZero() {
		f := c.FechaInicio
		r.StartDate = &f
	}
	return r
}

func resumenPrecios(cont *plantilla.Contenido) dto.PreciosResumen {
	p := dto.PreciosResumen{
		Lines: make([]dto.LineaPrecio, 0, len(cont.Servicios)),
		Internet: dto.Subtotal{
			Net: cont.Totales.Internet.Neto, Tax: cont.Totales.Internet.IVA, Total: cont.Totales.Internet.Total,
		},
		Television: dto.Subtotal{
			Net: cont.Totales.Television.Neto, Tax: cont.Totales.Television.IVA, Total: cont.Totales.Television.Total,
		},
		Net:   cont.Totales.Neto,
		Tax:   cont.Totales.IVA,
		Total: cont.Totales.Total,
	}
	if cont.SinServicios {
		p.Placeholder = plantilla.SinServicios
	}
	for _, l := range cont.Servicios {
		p.Lines = append(p.Lines, dto.LineaPrecio{
			Plan: l.Plan, Category: l.Categoria, Net: l.Neto, Tax: l.IVA, Total: l.Total,
		})
	}
	return p
}
