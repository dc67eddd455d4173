package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"erppsi/internal/apierror"
	"erppsi/internal/dto"
	"erppsi/internal/middleware"
	"erppsi/internal/service"
	"erppsi/internal/testdb"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fake service ─────────────────────────────────────────────────────────────

type fakeContratoService struct {
	artefacto *service.Artefacto
	err       error
	ultima    service.SolicitudFirma
	firmas    int
}

func (f *fakeContratoService) Materializar(context.Context, uint) (*service.Artefacto, error) {
	return f.artefacto, f.err
}

func (f *fakeContratoService) AbrirParaFirma(_ context.Context, id uint) (*dto.AbrirParaFirmaResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AbrirParaFirmaResponse{Contract: dto.ContratoResumen{ID: id}, Signed: true, Message: "ya firmado"}, nil
}

func (f *fakeContratoService) Firmar(_ context.Context, id uint, sol service.SolicitudFirma) (*dto.FirmaResponse, error) {
	f.firmas++
	f.ultima = sol
	if f.err != nil {
		return nil, f.err
	}
	return &dto.FirmaResponse{Success: true, ContractID: id, Signed: true, SignedBy: sol.NombreFirmante}, nil
}

func (f *fakeContratoService) VerificarPDF(_ context.Context, id uint) (*dto.VerificarPDFResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.VerificarPDFResponse{ContractID: id, ArtifactExists: false, Signed: true}, nil
}

func (f *fakeContratoService) DescargarPDF(context.Context, uint) (*service.Artefacto, error) {
	return f.artefacto, f.err
}

func (f *fakeContratoService) ObtenerEventoFirma(_ context.Context, id uint) (*dto.EventoFirmaResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.EventoFirmaResponse{ContractID: id, SHA256: "ab"}, nil
}

func init() { gin.SetMode(gin.TestMode) }

func newRouter(svc service.ContratoService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(false))
	h := NewContratosHandler(svc)
	g := r.Group("/v1/contracts")
	g.GET("/:id/pdf", h.PDF)
	g.GET("/:id/open-for-signing", h.AbrirParaFirma)
	g.POST("/:id/sign", h.Firmar)
	g.GET("/:id/download-pdf", h.DescargarPDF)
	g.GET("/:id/verify-pdf", h.VerificarPDF)
	g.GET("/:id/signature", h.EventoFirma)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("User-Agent", "tablet-firma/1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func artefacto(firmado bool) *service.Artefacto {
	a := &service.Artefacto{PDF: []byte("%PDF-1.4 x"), NumeroContrato: "C-1", Firmado: firmado, Archivo: "contract_C-1.pdf"}
	if firmado {
		a.Archivo = "contract_C-1_signed.pdf"
	}
	return a
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestPDF_InlineWithCache(t *testing.T) {
	r := newRouter(&fakeContratoService{artefacto: artefacto(false)})
	w := do(r, http.MethodGet, "/v1/contracts/1/pdf", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="contract_C-1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))
	assert.Equal(t, "%PDF-1.4 x", w.Body.String())
}

func TestDescargarPDF_Attachment(t *testing.T) {
	r := newRouter(&fakeContratoService{artefacto: artefacto(true)})
	w := do(r, http.MethodGet, "/v1/contracts/1/download-pdf", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="contract_C-1_signed.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestErrorKindsToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   apierror.Kind
	}{
		{apierror.Wrap(apierror.KindContractNotFound, "", nil), http.StatusNotFound, apierror.KindContractNotFound},
		{apierror.Wrap(apierror.KindArtifactNotFound, "", nil), http.StatusNotFound, apierror.KindArtifactNotFound},
		{apierror.Wrap(apierror.KindAlreadySigned, "", nil), http.StatusConflict, apierror.KindAlreadySigned},
		{apierror.Wrap(apierror.KindIncompleteSignatureData, "", nil), http.StatusUnprocessableEntity, apierror.KindIncompleteSignatureData},
		{apierror.Wrap(apierror.KindUnsupportedImageFormat, "", nil), http.StatusUnprocessableEntity, apierror.KindUnsupportedImageFormat},
		{apierror.Wrap(apierror.KindRenderFailure, "", context.DeadlineExceeded), http.StatusInternalServerError, apierror.KindRenderFailure},
	}
	for _, tc := range cases {
		r := newRouter(&fakeContratoService{err: tc.err})
		for _, path := range []string{"/pdf", "/download-pdf", "/verify-pdf", "/open-for-signing", "/signature"} {
			w := do(r, http.MethodGet, "/v1/contracts/7"+path, "")
			require.Equal(t, tc.status, w.Code, "%s %s", tc.code, path)

			var body apierror.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.Empty(t, body.Internal, "no internals outside development")
		}
	}
}

func TestInvalidID(t *testing.T) {
	svc := &fakeContratoService{}
	r := newRouter(svc)
	for _, id := range []string{"abc", "0", "-1"} {
		w := do(r, http.MethodGet, "/v1/contracts/"+id+"/verify-pdf", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
	w := do(r, http.MethodPost, "/v1/contracts/x/sign", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.firmas)
}

func TestFirmar_DecodesImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	b64 := base64.StdEncoding.EncodeToString(png)

	for name, img := range map[string]string{
		"raw base64": b64,
		"data url":   "data:image/png;base64," + b64,
		"unpadded":   strings.TrimRight(b64, "="),
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeContratoService{}
			r := newRouter(svc)
			body, _ := json.Marshal(dto.FirmarContratoRequest{
				SignatureImageBase64: img,
				SignerName:           "Ana Gómez",
				SignerIDNumber:       "1098765432",
				SignatureType:        "tablet",
			})
			w := do(r, http.MethodPost, "/v1/contracts/3/sign", string(body))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, png, svc.ultima.ImagenFirma)
			assert.Equal(t, "Ana Gómez", svc.ultima.NombreFirmante)
			assert.Equal(t, "tablet-firma/1.0", svc.ultima.Contexto.UserAgent)
			assert.NotEmpty(t, svc.ultima.Contexto.RequestID)

			var resp dto.FirmaResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Signed)
		})
	}
}

func TestFirmar_BadImageIsPassedAsEmpty(t *testing.T) {
	svc := &fakeContratoService{err: apierror.Wrap(apierror.KindAlreadySigned, "", nil)}
	r := newRouter(svc)
	w := do(r, http.MethodPost, "/v1/contracts/3/sign", `{"signatureImageBase64":"%%%not-base64","signerName":"Ana"}`)

	assert.Equal(t, http.StatusConflict, w.Code, "the already-signed check still runs")
	assert.Equal(t, 1, svc.firmas)
	assert.Nil(t, svc.ultima.ImagenFirma)
}

func TestFirmar_RequestShape(t *testing.T) {
	svc := &fakeContratoService{}
	r := newRouter(svc)

	w := do(r, http.MethodPost, "/v1/contracts/3/sign", `{"signerName":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/v1/contracts/3/sign", `{"signerName":"`+strings.Repeat("a", 151)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "max", body.Fields["signerName"])
	assert.Zero(t, svc.firmas)
}

func TestHealth(t *testing.T) {
	db := testdb.Open(t)
	r := gin.New()
	r.GET("/health", Health(db, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["db"])
	assert.NotContains(t, body, "redis")
}
