package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Requests ─────────────────────────────────────────────────────────────────

// FirmarContratoRequest is the body of POST /v1/contracts/:id/sign.
// Required fields are checked by the service after the already-signed
// check, so only length limits are declared here.
type FirmarContratoRequest struct {
	SignatureImageBase64 string `json:"signatureImageBase64"`
	SignerName           string `json:"signerName" validate:"max=150"`
	SignerIDNumber       string `json:"signerIdNumber" validate:"max=30"`
	SignatureType        string `json:"signatureType" validate:"max=30"`
	Observation          string `json:"observation" validate:"max=500"`
}

// ── Responses ────────────────────────────────────────────────────────────────

type FirmaResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	ContractID     uint      `json:"contractId"`
	ContractNumber string    `json:"contractNumber"`
	Signed         bool      `json:"signed"`
	SignedBy       string    `json:"signedBy"`
	SignedAt       time.Time `json:"signedAt"`
	ArtifactPath   string    `json:"artifactPath"`
	SHA256         string    `json:"sha256"`
	SignedPage     int       `json:"signedPage"`
	TotalPages     int       `json:"totalPages"`
}

type VerificarPDFResponse struct {
	ContractID     uint   `json:"contractId"`
	ContractNumber string `json:"contractNumber"`
	ArtifactExists bool   `json:"artifactExists"`
	SizeBytes      int64  `json:"sizeBytes"`
	Signed         bool   `json:"signed"`
}

type ContratoResumen struct {
	ID                uint            `json:"id"`
	ContractNumber    string          `json:"contractNumber"`
	Status            string          `json:"status"`
	MinimumTermType   string          `json:"minimumTermType"`
	MinimumTermMonths int             `json:"minimumTermMonths"`
	InstallationCost  decimal.Decimal `json:"installationCost"`
	StartDate         *time.Time      `json:"startDate,omitempty"`
	Signed            bool            `json:"signed"`
	SignedBy          *string         `json:"signedBy,omitempty"`
	SignedAt          *time.Time      `json:"signedAt,omitempty"`
}

type ClienteResumen struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IDNumber string `json:"idNumber"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

type ServicioResumen struct {
	ID          uint             `json:"id"`
	PlanName    string           `json:"planName"`
	PlanType    string           `json:"planType"`
	ListPrice   decimal.Decimal  `json:"listPrice"`
	CustomPrice *decimal.Decimal `json:"customPrice,omitempty"`
	Status      string           `json:"status"`
}

type LineaPrecio struct {
	Plan     string          `json:"plan"`
	Category string          `json:"category"`
	Net      decimal.Decimal `json:"net"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type Subtotal struct {
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Total decimal.Decimal `json:"total"`
}

type PreciosResumen struct {
	Lines       []LineaPrecio   `json:"lines"`
	Placeholder string          `json:"placeholder,omitempty"`
	Internet    Subtotal        `json:"internet"`
	Television  Subtotal        `json:"television"`
	Net         decimal.Decimal `json:"net"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// AbrirParaFirmaResponse is everything the signing screen needs.
type AbrirParaFirmaResponse struct {
	Contract       ContratoResumen   `json:"contract"`
	Customer       ClienteResumen    `json:"customer"`
	Services       []ServicioResumen `json:"services"`
	Pricing        PreciosResumen    `json:"pricing"`
	ArtifactExists bool              `json:"artifactExists"`
	Signed         bool              `json:"signed"`
	Message        string            `json:"message"`
}

type EventoFirmaResponse struct {
	ContractID     uint      `json:"contractId"`
	SignerName     string    `json:"signerName"`
	SignerIDNumber string    `json:"signerIdNumber"`
	SignatureType  string    `json:"signatureType"`
	Observation    *string   `json:"observation,omitempty"`
	ArtifactPath   string    `json:"artifactPath"`
	SHA256         string    `json:"sha256"`
	OriginalSHA256 string    `json:"originalSha256"`
	SignedAt       time.Time `json:"signedAt"`
}
