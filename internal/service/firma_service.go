package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"erppsi/internal/apierror"
	"erppsi/internal/dto"
	"erppsi/internal/infra"
	"erppsi/internal/model"
	"erppsi/internal/repository"
	"erppsi/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const tipoFirmaDefault = "digital"

// SolicitudFirma is a decoded signing request.
type SolicitudFirma struct {
	ImagenFirma    []byte
	NombreFirmante string
	CedulaFirmante string
	TipoFirma      string
	Observacion    string
	Contexto       ContextoFirma
}

// ContextoFirma is stored with the signature event for auditing.
type ContextoFirma struct {
	RequestID string `json:"request_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Usuario   string `json:"usuario,omitempty"`
}

// ── Firmar ────────────────────────────────────────────────────────────────────
// One transaction:
//   1. Load the contract with a row lock
//   2. Reject if already signed, then reject incomplete signature data
//   3. Materialize the current artifact (inside the same tx)
//   4. Stamp the signature on the last page and write the signed file
//   5. Conditional update (firmado = false → true), append the notes line
//   6. Insert the signature event
//   7. COMMIT, then (async) dispatch the post-signature job
// If anything fails after step 4 the signed file is removed, so a rolled
// back signature leaves no artifact behind.

func (s *contratoService) Firmar(ctx context.Context, contratoID uint, sol SolicitudFirma) (*dto.FirmaResponse, error) {
	var (
		resp       *dto.FirmaResponse
		escrito    string
		payload    worker.ContratoFirmadoPayload
		sha256Orig string
	)

	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		c, err := s.cargarTx(tx, contratoID, true)
		if err != nil {
			return err
		}
		if c.Firmado {
			return apierror.Wrap(apierror.KindAlreadySigned, "", nil)
		}
		if err := validarSolicitud(sol); err != nil {
			return err
		}

		original, err := s.materializarTx(ctx, tx, c)
		if err != nil {
			return err
		}
		sha256Orig = hashHex(original.PDF)

		fecha := s.now()
		tipo := strings.TrimSpace(sol.TipoFirma)
		if tipo == "" {
			tipo = tipoFirmaDefault
		}
		nombre := strings.TrimSpace(sol.NombreFirmante)
		cedula := strings.TrimSpace(sol.CedulaFirmante)
		obs := strings.TrimSpace(sol.Observacion)

		est, err := s.estampador.Estampar(original.PDF, sol.ImagenFirma, infra.Atestacion{
			NombreFirmante: nombre,
			CedulaFirmante: cedula,
			Fecha:          fecha,
			Observacion:    obs,
		})
		if err != nil {
			return err
		}

		archivo := fmt.Sprintf("contract_%s_signed_%s_%s.pdf",
			numeroArchivo(c.NumeroContrato), fecha.UTC().Format("20060102T150405"), uuid.NewString()[:8])
		rel, err := s.almacen.Guardar(archivo, est.PDF)
		if err != nil {
			return apierror.Wrap(apierror.KindArtifactWriteFailure, "", err)
		}
		escrito = rel
		sum := hashHex(est.PDF)

		nota := fmt.Sprintf("[%s] Contrato firmado digitalmente por %s (CC %s), tipo %s, SHA-256 %s",
			fecha.Format(time.RFC3339), nombre, cedula, tipo, sum)
		if obs != "" {
			nota += ". Observacion: " + obs
		}
		err = s.contratos.MarcarFirmadoTx(tx, c.ID, repository.DatosFirma{
			PDFPath:        rel,
			FirmadoPor:     nombre,
			CedulaFirmante: cedula,
			FechaFirma:     fecha,
			Nota:           nota,
		})
		if errors.Is(err, repository.ErrYaFirmado) {
			return apierror.Wrap(apierror.KindAlreadySigned, "", err)
		}
		if err != nil {
			return err
		}

		contexto, _ := json.Marshal(struct {
			ContextoFirma
			SHA256Original string `json:"sha256_original"`
			Pagina         int    `json:"pagina"`
			Paginas        int    `json:"paginas"`
		}{sol.Contexto, sha256Orig, est.Pagina, est.Paginas})
		ev := &model.EventoFirma{
			ContratoID:     c.ID,
			NombreFirmante: nombre,
			CedulaFirmante: cedula,
			TipoFirma:      tipo,
			PDFPath:        rel,
			SHA256:         sum,
			SHA256Original: sha256Orig,
			FirmadoEn:      fecha,
			Contexto:       datatypes.JSON(contexto),
		}
		if obs != "" {
			ev.Observacion = &obs
		}
		if err := s.contratos.CreateEventoFirmaTx(tx, ev); err != nil {
			return err
		}

		resp = &dto.FirmaResponse{
			Success:        true,
			Message:        "Contrato firmado exitosamente",
			ContractID:     c.ID,
			ContractNumber: c.NumeroContrato,
			Signed:         true,
			SignedBy:       nombre,
			SignedAt:       fecha,
			ArtifactPath:   rel,
			SHA256:         sum,
			SignedPage:     est.Pagina,
			TotalPages:     est.Paginas,
		}
		payload = worker.ContratoFirmadoPayload{
			ContratoID:     c.ID,
			NumeroContrato: c.NumeroContrato,
			PDFPath:        rel,
			SHA256:         sum,
		}
		if cli, err := s.clientes.FindByIDTx(tx, c.ClienteID); err == nil {
			payload.ClienteNombre = cli.Nombre
			payload.ClienteEmail = cli.Email
		}
		return nil
	})
	if err != nil {
		if escrito != "" {
			if rmErr := s.almacen.Eliminar(escrito); rmErr != nil {
				log.Error().Err(rmErr).Str("path", escrito).Msg("no se pudo eliminar el PDF firmado tras rollback")
			}
		}
		err = clasificar(err)
		if k := apierror.KindOf(err); k != apierror.KindAlreadySigned && k != apierror.KindIncompleteSignatureData &&
			k != apierror.KindContractNotFound && k != apierror.KindUnsupportedImageFormat {
			log.Error().Uint("contrato_id", contratoID).Str("code", string(k)).Err(err).Msg("firma revertida")
		}
		return nil, err
	}

	log.Info().
		Uint("contrato_id", contratoID).
		Str("path", resp.ArtifactPath).
		Str("sha256", resp.SHA256).
		Msg("contrato firmado")

	if s.despachador != nil {
		if err := s.despachador.EnqueueContratoFirmado(ctx, payload); err != nil {
			log.Warn().Uint("contrato_id", contratoID).Err(err).Msg("no se pudo encolar el trabajo post-firma")
		}
	}
	return resp, nil
}

func validarSolicitud(sol SolicitudFirma) error {
	var faltan []string
	if len(sol.ImagenFirma) == 0 {
		faltan = append(faltan, "signatureImageBase64")
	}
	if strings.TrimSpace(sol.NombreFirmante) == "" {
		faltan = append(faltan, "signerName")
	}
	if strings.TrimSpace(sol.CedulaFirmante) == "" {
		faltan = append(faltan, "signerIdNumber")
	}
	if len(faltan) > 0 {
		return apierror.Wrap(apierror.KindIncompleteSignatureData,
			"Datos de firma incompletos: "+strings.Join(faltan, ", "), nil)
	}
	return nil
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
