package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"erppsi/internal/apierror"
	"erppsi/internal/dto"
	"erppsi/internal/middleware"
	"erppsi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ContratosHandler struct{ svc service.ContratoService }

func NewContratosHandler(svc service.ContratoService) *ContratosHandler {
	return &ContratosHandler{svc: svc}
}

// PDF godoc
// @Summary      Ver PDF del contrato
// @Description  Devuelve el PDF almacenado o lo genera si no existe. El PDF almacenado se reutiliza aunque los datos hayan cambiado.
// @Tags         contratos
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path     int  true "ID del contrato"
// @Success      200  {file}   file
// @Failure      404  {object} apierror.APIError
// @Failure      500  {object} apierror.APIError
// @Router       /v1/contracts/{id}/pdf [get]
func (h *ContratosHandler) PDF(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	art, err := h.svc.Materializar(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	servirPDF(c, art, "inline")
}

// AbrirParaFirma godoc
// @Summary      Abrir contrato para firma
// @Description  Datos del contrato, cliente, servicios activos y precios. Si ya fue firmado responde igual con un mensaje de estado.
// @Tags         contratos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true "ID del contrato"
// @Success      200  {object} dto.AbrirParaFirmaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/contracts/{id}/open-for-signing [get]
func (h *ContratosHandler) AbrirParaFirma(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.AbrirParaFirma(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Firmar godoc
// @Summary      Firmar contrato
// @Description  Estampa la firma en la última página del PDF y marca el contrato como firmado. Un contrato solo admite una firma.
// @Tags         contratos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int                        true "ID del contrato"
// @Param        body body     dto.FirmarContratoRequest  true "Imagen de firma (PNG o JPEG en base64) y datos del firmante"
// @Success      200  {object} dto.FirmaResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Failure      500  {object} apierror.APIError
// @Router       /v1/contracts/{id}/sign [post]
func (h *ContratosHandler) Firmar(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	var req dto.FirmarContratoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sol := service.SolicitudFirma{
		ImagenFirma:    decodificarImagen(c, req.SignatureImageBase64),
		NombreFirmante: req.SignerName,
		CedulaFirmante: req.SignerIDNumber,
		TipoFirma:      req.SignatureType,
		Observacion:    req.Observation,
		Contexto: service.ContextoFirma{
			RequestID: middleware.GetRequestID(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Usuario:   middleware.Usuario(c),
		},
	}
	resp, err := h.svc.Firmar(c.Request.Context(), id, sol)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary      Descargar PDF del contrato
// @Description  Descarga el PDF vigente (firmado o no). No genera: si el archivo no existe responde 404.
// @Tags         contratos
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path     int  true "ID del contrato"
// @Success      200  {file}   file
// @Failure      404  {object} apierror.APIError
// @Router       /v1/contracts/{id}/download-pdf [get]
func (h *ContratosHandler) DescargarPDF(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	art, err := h.svc.DescargarPDF(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	servirPDF(c, art, "attachment")
}

// VerificarPDF godoc
// @Summary      Verificar PDF del contrato
// @Description  Indica si el PDF registrado existe, su tamaño y si el contrato está firmado. Nunca genera el PDF.
// @Tags         contratos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true "ID del contrato"
// @Success      200  {object} dto.VerificarPDFResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/contracts/{id}/verify-pdf [get]
func (h *ContratosHandler) VerificarPDF(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.VerificarPDF(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EventoFirma godoc
// @Summary      Registro de firma
// @Description  Firmante, hash SHA-256 del PDF firmado y del original, y fecha de firma.
// @Tags         contratos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true "ID del contrato"
// @Success      200  {object} dto.EventoFirmaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/contracts/{id}/signature [get]
func (h *ContratosHandler) EventoFirma(c *gin.Context) {
	id, ok := contratoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerEventoFirma(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func contratoID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID de contrato invalido"))
		return 0, false
	}
	return uint(id), true
}

func servirPDF(c *gin.Context, art *service.Artefacto, disposicion string) {
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposicion, art.Archivo))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "application/pdf", art.PDF)
}

// decodificarImagen accepts raw base64 or a data URL. An undecodable value
// is passed on as empty so the signing flow reports incomplete data after
// its already-signed check.
func decodificarImagen(c *gin.Context, s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("imagen de firma no es base64 valido")
		return nil
	}
	return b
}
