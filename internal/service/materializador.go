package service

import (
	"context"
	"fmt"

	"erppsi/internal/apierror"
	"erppsi/internal/model"
	"erppsi/internal/plantilla"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Materializar returns the contract's PDF, generating and storing it only
// when no stored artifact is available. A stored artifact is served as-is
// even if the underlying data changed since it was generated.
func (s *contratoService) Materializar(ctx context.Context, contratoID uint) (*Artefacto, error) {
	h := s.db.WithContext(ctx)
	c, err := s.cargarTx(h, contratoID, false)
	if err != nil {
		return nil, err
	}
	art, err := s.materializarTx(ctx, h, c)
	if err != nil {
		return nil, clasificar(err)
	}
	return art, nil
}

// materializarTx is the cache-or-generate step shared with Firmar, which
// calls it inside its own transaction. On success c.PDFPath reflects the
// persisted path.
func (s *contratoService) materializarTx(ctx context.Context, tx *gorm.DB, c *model.Contrato) (*Artefacto, error) {
	if art, ok := s.reutilizar(c); ok {
		return art, nil
	}
	if c.Firmado {
		// A signed contract is only ever served its signed artifact.
		return nil, apierror.Wrap(apierror.KindArtifactNotFound, "El PDF firmado del contrato no existe en el almacenamiento", nil)
	}

	cont, err := s.resolvedor.ResolverTx(tx, c)
	if err != nil {
		return nil, err
	}
	doc := plantilla.Renderizar(cont, s.catalogo)
	pdf, err := s.motor.Render(ctx, doc)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindRenderFailure, "", err)
	}

	art := &Artefacto{
		PDF:            pdf,
		NumeroContrato: c.NumeroContrato,
		Generado:       true,
		Archivo:        nombreDescarga(c.NumeroContrato, false),
	}

	nombre := fmt.Sprintf("contract_%s_original.pdf", numeroArchivo(c.NumeroContrato))
	rel, err := s.almacen.Guardar(nombre, pdf)
	if err != nil {
		log.Warn().
			Uint("contrato_id", c.ID).
			Str("code", string(apierror.KindArtifactWriteFailure)).
			Err(err).
			Msg("no se pudo guardar el PDF generado, se entrega sin persistir")
		return art, nil
	}
	ok, err := s.contratos.UpdatePDFPathTx(tx, c.ID, c.PDFPath, rel)
	if err != nil {
		log.Warn().
			Uint("contrato_id", c.ID).
			Str("path", rel).
			Str("code", string(apierror.KindArtifactWriteFailure)).
			Err(err).
			Msg("no se pudo registrar la ruta del PDF generado")
		return art, nil
	}
	if !ok {
		return s.carreraPerdida(tx, c, art)
	}
	c.PDFPath = &rel
	art.Path = rel
	log.Info().Uint("contrato_id", c.ID).Str("path", rel).Int("bytes", len(pdf)).Msg("PDF de contrato generado")
	return art, nil
}

// carreraPerdida handles a render whose path update matched nothing: the
// contract was signed or given another artifact meanwhile. The record wins;
// the fresh render is only served while the contract is still unsigned and
// has no readable artifact.
func (s *contratoService) carreraPerdida(tx *gorm.DB, c *model.Contrato, generado *Artefacto) (*Artefacto, error) {
	actual, err := s.cargarTx(tx, c.ID, false)
	if err != nil {
		return nil, err
	}
	log.Info().
		Uint("contrato_id", c.ID).
		Bool("firmado", actual.Firmado).
		Msg("el contrato cambio durante la generacion, se sirve el artefacto registrado")
	*c = *actual
	if art, ok := s.reutilizar(c); ok {
		return art, nil
	}
	if c.Firmado {
		return nil, apierror.Wrap(apierror.KindArtifactNotFound, "El PDF firmado del contrato no existe en el almacenamiento", nil)
	}
	return generado, nil
}

// reutilizar serves the stored artifact when the recorded path exists.
func (s *contratoService) reutilizar(c *model.Contrato) (*Artefacto, bool) {
	if c.PDFPath == nil || *c.PDFPath == "" {
		return nil, false
	}
	ok, _, err := s.almacen.Existe(*c.PDFPath)
	if err != nil || !ok {
		return nil, false
	}
	pdf, err := s.almacen.Leer(*c.PDFPath)
	if err != nil {
		log.Warn().Uint("contrato_id", c.ID).Str("path", *c.PDFPath).Err(err).Msg("PDF registrado ilegible")
		return nil, false
	}
	return &Artefacto{
		PDF:            pdf,
		Path:           *c.PDFPath,
		NumeroContrato: c.NumeroContrato,
		Firmado:        c.Firmado,
		Archivo:        nombreDescarga(c.NumeroContrato, c.Firmado),
	}, true
}

func nombreDescarga(numero string, firmado bool) string {
	if firmado {
		return fmt.Sprintf("contract_%s_signed.pdf", numeroArchivo(numero))
	}
	return fmt.Sprintf("contract_%s.pdf", numeroArchivo(numero))
}
