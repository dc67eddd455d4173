package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"erppsi/internal/documento"
)

const mmPorPulgada = 25.4

// ChromiumEngine delegates rendering to a headless-Chromium sidecar
// (Gotenberg API). The sidecar prints the document's HTML serialisation.
// Calls go through a circuit breaker so an unavailable sidecar fails fast.
type ChromiumEngine struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewChromiumEngine(baseURL string, cb *CircuitBreaker) *ChromiumEngine {
	return &ChromiumEngine{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

func (e *ChromiumEngine) Nombre() string { return "chromium" }

// Breaker exposes the circuit breaker for the health endpoint.
func (e *ChromiumEngine) Breaker() *CircuitBreaker { return e.cb }

// Render POSTs the HTML to /forms/chromium/convert/html and returns the PDF.
func (e *ChromiumEngine) Render(ctx context.Context, doc *documento.Documento) ([]byte, error) {
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}

	var out []byte
	err = e.cb.Execute(func() error {
		var callErr error
		out, callErr = e.convertir(ctx, html, doc.Opciones)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("chromium: %w", err)
	}
	return out, nil
}

func (e *ChromiumEngine) convertir(ctx context.Context, html []byte, o documento.OpcionesPagina) ([]byte, error) {
	if o.AnchoMM == 0 || o.AltoMM == 0 {
		o = documento.Carta
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(html); err != nil {
		return nil, fmt.Errorf("write html: %w", err)
	}
	pulgadas := func(mm float64) string { return strconv.FormatFloat(mm/mmPorPulgada, 'f', 2, 64) }
	campos := [][2]string{
		{"paperWidth", pulgadas(o.AnchoMM)},
		{"paperHeight", pulgadas(o.AltoMM)},
		{"marginTop", pulgadas(o.MargenMM)},
		{"marginBottom", pulgadas(o.MargenMM)},
		{"marginLeft", pulgadas(o.MargenMM)},
		{"marginRight", pulgadas(o.MargenMM)},
		{"preferCssPageSize", "true"},
		{"printBackground", "true"},
	}
	for _, c := range campos {
		if err := mw.WriteField(c[0], c[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", c[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar returned %d", resp.StatusCode)
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, fmt.Errorf("sidecar returned non-PDF body")
	}
	return pdf, nil
}
