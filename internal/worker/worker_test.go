package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlmacen map[string][]byte

func (f fakeAlmacen) Leer(rel string) ([]byte, error) {
	b, ok := f[rel]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

type fakeEspejo struct {
	fallas  int
	subidas []string
}

func (f *fakeEspejo) Subir(_ context.Context, objeto string, _ []byte, _ string) error {
	if f.fallas > 0 {
		f.fallas--
		return errors.New("minio down")
	}
	f.subidas = append(f.subidas, objeto)
	return nil
}

type fakeCorreo struct {
	habilitado bool
	err        error
	enviados   []string
	adjunto    string
}

func (f *fakeCorreo) Habilitado() bool { return f.habilitado }

func (f *fakeCorreo) EnviarPDF(to, _, _, archivo string, _ []byte) error {
	if f.err != nil {
		return f.err
	}
	f.enviados = append(f.enviados, to)
	f.adjunto = archivo
	return nil
}

func init() { retryBase = time.Millisecond }

func payload(t *testing.T, p ContratoFirmadoPayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func firmado() (fakeAlmacen, ContratoFirmadoPayload) {
	pdf := []byte("%PDF-1.4 firmado")
	sum := sha256.Sum256(pdf)
	return fakeAlmacen{"contract_C-1_signed.pdf": pdf}, ContratoFirmadoPayload{
		ContratoID:     1,
		NumeroContrato: "C/1",
		PDFPath:        "contract_C-1_signed.pdf",
		SHA256:         hex.EncodeToString(sum[:]),
		ClienteEmail:   "ana@example.com",
		ClienteNombre:  "Ana",
	}
}

func TestContratoFirmadoWorker_MirrorsAndEmails(t *testing.T) {
	alm, p := firmado()
	esp := &fakeEspejo{fallas: 1}
	cor := &fakeCorreo{habilitado: true}
	w := NewContratoFirmadoWorker(alm, esp, cor, "ISP")

	require.NoError(t, w.Process(context.Background(), payload(t, p)))
	assert.Equal(t, []string{"contratos/C_1/contract_C-1_signed.pdf"}, esp.subidas)
	assert.Equal(t, []string{"ana@example.com"}, cor.enviados)
	assert.Equal(t, "contract_C_1_signed.pdf", cor.adjunto)
}

func TestContratoFirmadoWorker_OptionalSteps(t *testing.T) {
	alm, p := firmado()
	p.ClienteEmail = ""
	cor := &fakeCorreo{habilitado: true}
	w := NewContratoFirmadoWorker(alm, nil, cor, "ISP")

	require.NoError(t, w.Process(context.Background(), payload(t, p)))
	assert.Empty(t, cor.enviados)

	w = NewContratoFirmadoWorker(alm, nil, &fakeCorreo{habilitado: false, err: errors.New("boom")}, "ISP")
	assert.NoError(t, w.Process(context.Background(), payload(t, p)))
}

func TestContratoFirmadoWorker_Failures(t *testing.T) {
	alm, p := firmado()

	t.Run("hash mismatch", func(t *testing.T) {
		q := p
		q.SHA256 = "deadbeef"
		err := NewContratoFirmadoWorker(alm, nil, nil, "").Process(context.Background(), payload(t, q))
		assert.ErrorContains(t, err, "hash mismatch")
	})

	t.Run("missing artifact", func(t *testing.T) {
		q := p
		q.PDFPath = "otro.pdf"
		err := NewContratoFirmadoWorker(alm, nil, nil, "").Process(context.Background(), payload(t, q))
		assert.Error(t, err)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		esp := &fakeEspejo{fallas: maxAttempts}
		cor := &fakeCorreo{habilitado: true, err: errors.New("smtp down")}
		err := NewContratoFirmadoWorker(alm, esp, cor, "").Process(context.Background(), payload(t, p))
		require.Error(t, err)
		assert.ErrorContains(t, err, "mirror upload")
		assert.ErrorContains(t, err, "email")
		assert.Empty(t, esp.subidas)
	})

	t.Run("invalid payload", func(t *testing.T) {
		err := NewContratoFirmadoWorker(alm, nil, nil, "").Process(context.Background(), json.RawMessage(`{`))
		assert.Error(t, err)
	})
}

type procesador struct{ llamadas int }

func (p *procesador) Process(context.Context, json.RawMessage) error {
	p.llamadas++
	return nil
}

func TestDespachar(t *testing.T) {
	p := &procesador{}
	handlers := map[string]Processor{JobContratoFirmado: p}

	raw, err := encodeJob(JobContratoFirmado, ContratoFirmadoPayload{ContratoID: 9})
	require.NoError(t, err)
	job, err := despachar(context.Background(), handlers, string(raw))
	require.NoError(t, err)
	assert.Equal(t, JobContratoFirmado, job.Type)
	assert.Equal(t, 1, p.llamadas)

	raw, _ = encodeJob("desconocido", struct{}{})
	_, err = despachar(context.Background(), handlers, string(raw))
	assert.ErrorContains(t, err, "no handler")

	job, err = despachar(context.Background(), handlers, "not json")
	assert.Error(t, err)
	entry := newDLQEntry(QueueContratoFirmado, job.Type, job.Payload, err.Error(), 1, time.Now())
	_, err = json.Marshal(entry)
	assert.NoError(t, err)
}

func TestWithRetry(t *testing.T) {
	intentos := 0
	err := withRetry(context.Background(), 3, func(int) error {
		intentos++
		if intentos < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, intentos)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, 3, func(int) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}
