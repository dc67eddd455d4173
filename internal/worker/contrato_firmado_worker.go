package worker

// contrato_firmado_worker.go
// Runs after a contract signature commits: mirrors the signed PDF to object
// storage and emails the signed copy to the customer. Both steps are
// optional and retried with exponential backoff (max 3 attempts).

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"
)

// ContratoFirmadoPayload is the job envelope sent to QueueContratoFirmado.
type ContratoFirmadoPayload struct {
	ContratoID     uint   `json:"contrato_id"`
	NumeroContrato string `json:"numero_contrato"`
	PDFPath        string `json:"pdf_path"`
	SHA256         string `json:"sha256"`
	ClienteEmail   string `json:"cliente_email,omitempty"`
	ClienteNombre  string `json:"cliente_nombre,omitempty"`
}

// LectorArtefactos reads stored artifacts by relative path.
type LectorArtefactos interface {
	Leer(rel string) ([]byte, error)
}

// Espejo uploads a copy of an artifact to object storage.
type Espejo interface {
	Subir(ctx context.Context, objeto string, pdf []byte, sha256 string) error
}

// Correo sends a PDF attachment by email.
type Correo interface {
	Habilitado() bool
	EnviarPDF(to, subject, body, archivo string, pdf []byte) error
}

// ContratoFirmadoWorker processes jobs from QueueContratoFirmado.
type ContratoFirmadoWorker struct {
	almacen LectorArtefactos
	espejo  Espejo // nil when no bucket is configured
	correo  Correo // nil when SMTP is not configured
	empresa string
}

func NewContratoFirmadoWorker(almacen LectorArtefactos, espejo Espejo, correo Correo, empresa string) *ContratoFirmadoWorker {
	return &ContratoFirmadoWorker{almacen: almacen, espejo: espejo, correo: correo, empresa: empresa}
}

// Process handles a single contrato_firmado job:
//  1. Parse the payload and load the signed PDF
//  2. Check the bytes still hash to the signed SHA-256
//  3. Upload to the mirror bucket (if configured)
//  4. Email the signed copy to the customer (if configured and known)
func (w *ContratoFirmadoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p ContratoFirmadoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("contrato_firmado: invalid payload: %w", err)
	}
	if p.PDFPath == "" {
		return errors.New("contrato_firmado: empty pdf_path")
	}

	pdf, err := w.almacen.Leer(p.PDFPath)
	if err != nil {
		return fmt.Errorf("contrato_firmado: read %s: %w", p.PDFPath, err)
	}
	if p.SHA256 != "" {
		sum := sha256.Sum256(pdf)
		if got := hex.EncodeToString(sum[:]); got != p.SHA256 {
			return fmt.Errorf("contrato_firmado: %s hash mismatch: got %s want %s", p.PDFPath, got, p.SHA256)
		}
	}

	var errs []error
	if w.espejo != nil {
		objeto := fmt.Sprintf("contratos/%s/%s", objetoSeguro(p.NumeroContrato), p.PDFPath)
		err := withRetry(ctx, maxAttempts, func(attempt int) error {
			err := w.espejo.Subir(ctx, objeto, pdf, p.SHA256)
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt+1).Uint("contrato_id", p.ContratoID).
					Msg("contrato_firmado: mirror upload failed, retrying")
			}
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("mirror upload: %w", err))
		} else {
			log.Info().Uint("contrato_id", p.ContratoID).Str("objeto", objeto).Msg("contrato_firmado: signed PDF mirrored")
		}
	}

	switch {
	case w.correo == nil || !w.correo.Habilitado():
	case p.ClienteEmail == "":
		log.Warn().Uint("contrato_id", p.ContratoID).Msg("contrato_firmado: customer has no email, skipping")
	default:
		subject := fmt.Sprintf("Contrato %s firmado", p.NumeroContrato)
		body := fmt.Sprintf("Hola %s,\n\nAdjuntamos la copia firmada de su contrato %s.\n\n%s",
			p.ClienteNombre, p.NumeroContrato, w.empresa)
		archivo := fmt.Sprintf("contract_%s_signed.pdf", objetoSeguro(p.NumeroContrato))
		err := withRetry(ctx, maxAttempts, func(attempt int) error {
			err := w.correo.EnviarPDF(p.ClienteEmail, subject, body, archivo, pdf)
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt+1).Str("to", p.ClienteEmail).
					Msg("contrato_firmado: email failed, retrying")
			}
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			log.Info().Uint("contrato_id", p.ContratoID).Str("to", p.ClienteEmail).Msg("contrato_firmado: signed copy emailed")
		}
	}
	return errors.Join(errs...)
}

var noObjeto = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func objetoSeguro(s string) string { return noObjeto.ReplaceAllString(s, "_") }
