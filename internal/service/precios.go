package service

import (
	"errors"
	"fmt"
	"strconv"

	"erppsi/internal/apierror"
	"erppsi/internal/model"
	"erppsi/internal/plantilla"
	"erppsi/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TasaIVA is the VAT rate applied to every price line.
var TasaIVA = decimal.RequireFromString("0.19")

// Resolvedor builds the content of a contract: customer data, one price
// line per (service, bucket), bucket subtotals, grand totals and the
// permanency clause.
type Resolvedor struct {
	clientes  repository.ClienteRepository
	servicios repository.ServicioRepository
	empresa   plantilla.Empresa
	baseURL   string
}

func NewResolvedor(clientes repository.ClienteRepository, servicios repository.ServicioRepository, empresa plantilla.Empresa, baseURL string) *Resolvedor {
	return &Resolvedor{clientes: clientes, servicios: servicios, empresa: empresa, baseURL: baseURL}
}

// ResolverTx resolves c using tx for every read. A malformed service
// reference or an empty service list degrades to the placeholder line and
// is never returned as an error.
func (r *Resolvedor) ResolverTx(tx *gorm.DB, c *model.Contrato) (*plantilla.Contenido, error) {
	cli, err := r.clientes.FindByIDTx(tx, c.ClienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Wrap(apierror.KindContractNotFound, "Cliente del contrato no encontrado", err)
		}
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}

	fecha := c.FechaInicio
	if fecha.IsZero() {
		fecha = c.CreatedAt
	}
	cont := &plantilla.Contenido{
		Empresa:         r.empresa,
		NumeroContrato:  c.NumeroContrato,
		FechaInicio:     fecha,
		TipoPermanencia: c.TipoPermanencia,
		Cliente: plantilla.ClienteInfo{
			Nombre:         cli.Nombre,
			Identificacion: cli.Identificacion,
			Telefono:       cli.Telefono,
			Email:          cli.Email,
			Direccion:      cli.Direccion,
			Barrio:         cli.Barrio,
			Ciudad:         cli.Ciudad,
			Estrato:        cli.Estrato,
		},
		CostoInstalacion: c.CostoInstalacion.Round(2),
		Permanencia:      permanencia(c),
	}
	if r.baseURL != "" {
		cont.URLVerificacion = fmt.Sprintf("%s/v1/contracts/%d/verify-pdf", r.baseURL, c.ID)
	}

	servicios, err := r.serviciosTx(tx, c)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindTransactionFailure, "", err)
	}
	for _, s := range servicios {
		cont.Servicios = append(cont.Servicios, lineas(s)...)
	}
	if len(cont.Servicios) == 0 {
		cont.SinServicios = true
	}
	cont.Totales = totalizar(cont.Servicios)
	return cont, nil
}

// serviciosTx returns the referenced subscriptions in reference order.
func (r *Resolvedor) serviciosTx(tx *gorm.DB, c *model.Contrato) ([]model.ServicioCliente, error) {
	ref, err := ParseServicioRef(c.ServicioID)
	if err != nil {
		log.Warn().
			Uint("contrato_id", c.ID).
			Str("numero", c.NumeroContrato).
			Str("code", string(apierror.KindMalformedServiceReference)).
			Err(err).
			Msg("servicio_id invalido, se usa el texto por defecto")
		return nil, nil
	}
	if ref.Kind == RefVacia {
		return nil, nil
	}

	encontrados, err := r.servicios.FindByIDsTx(tx, ref.IDs)
	if err != nil {
		return nil, err
	}
	porID := make(map[uint]model.ServicioCliente, len(encontrados))
	for _, s := range encontrados {
		porID[s.ID] = s
	}
	out := make([]model.ServicioCliente, 0, len(ref.IDs))
	vistos := make(map[uint]bool, len(ref.IDs))
	for _, id := range ref.IDs {
		s, ok := porID[id]
		if !ok || vistos[id] {
			continue
		}
		vistos[id] = true
		out = append(out, s)
	}
	return out, nil
}

// lineas prices one subscription. The override wins over the list price; a
// combo override is split in proportion to the plan's sub-prices, the
// internet share rounded to cents and television taking the remainder.
func lineas(s model.ServicioCliente) []plantilla.LineaServicio {
	p := s.Plan
	switch p.Tipo {
	case model.PlanTelevision:
		return []plantilla.LineaServicio{linea(p.Nombre, plantilla.CategoriaTelevision, detalleTV(p), precioBase(s))}
	case model.PlanCombo:
		internet, tv := dividirCombo(s)
		return []plantilla.LineaServicio{
			linea(p.Nombre, plantilla.CategoriaInternet, detalleInternet(p), internet),
			linea(p.Nombre, plantilla.CategoriaTelevision, detalleTV(p), tv),
		}
	default:
		return []plantilla.LineaServicio{linea(p.Nombre, plantilla.CategoriaInternet, detalleInternet(p), precioBase(s))}
	}
}

func precioBase(s model.ServicioCliente) decimal.Decimal {
	if s.PrecioPersonalizado != nil {
		return *s.PrecioPersonalizado
	}
	return s.Plan.Precio
}

func dividirCombo(s model.ServicioCliente) (internet, tv decimal.Decimal) {
	p := s.Plan
	pi, pt := p.PrecioInternet.Round(2), p.PrecioTelevision.Round(2)
	suma := pi.Add(pt)
	if suma.IsZero() {
		return precioBase(s).Round(2), decimal.Zero
	}
	if s.PrecioPersonalizado == nil {
		return pi, pt
	}
	total := s.PrecioPersonalizado.Round(2)
	internet = total.Mul(pi).Div(suma).Round(2)
	return internet, total.Sub(internet)
}

func linea(plan, categoria, detalle string, neto decimal.Decimal) plantilla.LineaServicio {
	neto = neto.Round(2)
	iva := neto.Mul(TasaIVA).Round(2)
	return plantilla.LineaServicio{
		Plan:      plan,
		Categoria: categoria,
		Detalle:   detalle,
		Neto:      neto,
		IVA:       iva,
		Total:     neto.Add(iva),
	}
}

// totalizar sums line nets into buckets, taxes each bucket once and adds
// the buckets into the grand total, so the grand total equals the sum of
// the bucket subtotals. Line IVA is informative only.
func totalizar(ls []plantilla.LineaServicio) plantilla.Totales {
	var t plantilla.Totales
	for _, l := range ls {
		if l.Categoria == plantilla.CategoriaTelevision {
			t.Television.Neto = t.Television.Neto.Add(l.Neto)
		} else {
			t.Internet.Neto = t.Internet.Neto.Add(l.Neto)
		}
	}
	for _, s := range []*plantilla.Subtotal{&t.Internet, &t.Television} {
		s.IVA = s.Neto.Mul(TasaIVA).Round(2)
		s.Total = s.Neto.Add(s.IVA)
	}
	t.Neto = t.Internet.Neto.Add(t.Television.Neto)
	t.IVA = t.Internet.IVA.Add(t.Television.IVA)
	t.Total = t.Internet.Total.Add(t.Television.Total)
	return t
}

// permanencia builds the penalty schedule: terminating in month m of N
// costs the installation fee times (N-m+1)/N.
func permanencia(c *model.Contrato) *plantilla.Permanencia {
	if !c.TienePermanencia() {
		return nil
	}
	n := c.MesesPermanencia
	costo := c.CostoInstalacion.Round(2)
	p := &plantilla.Permanencia{Meses: n, CostoInstalacion: costo}
	for m := 1; m <= n; m++ {
		valor := costo.Mul(decimal.NewFromInt(int64(n - m + 1))).Div(decimal.NewFromInt(int64(n))).Round(2)
		p.Penalidades = append(p.Penalidades, plantilla.Penalidad{Mes: m, Valor: valor})
	}
	return p
}

func detalleInternet(p model.Plan) string {
	if p.VelocidadBajada == 0 {
		return ""
	}
	return fmt.Sprintf("%d Mbps bajada / %d Mbps subida", p.VelocidadBajada, p.VelocidadSubida)
}

func detalleTV(p model.Plan) string {
	if p.CanalesTV == 0 {
		return ""
	}
	return strconv.Itoa(p.CanalesTV) + " canales"
}
