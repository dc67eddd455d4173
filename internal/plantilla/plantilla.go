// Package plantilla turns resolved contract content into page-structured
// markup. Renderizar is pure: equal inputs always give equal documents.
package plantilla

import (
	"fmt"
	"strconv"
	"strings"

	"erppsi/internal/documento"
	"erppsi/internal/model"
)

// Renderizar builds the contract document: two pages for every contract and
// a third permanency appendix only when c.Permanencia is set.
func Renderizar(c *Contenido, cat *Catalogo) *documento.Documento {
	doc := &documento.Documento{
		Titulo:   fmt.Sprintf("%s No. %s", cat.Titulo, c.NumeroContrato),
		Opciones: documento.Carta,
		Paginas: []documento.Pagina{
			paginaDatos(c, cat),
			paginaCondiciones(c, cat),
		},
	}
	if c.Permanencia != nil {
		doc.Paginas = append(doc.Paginas, paginaPermanencia(c, cat))
	}
	return doc
}

func encabezado(c *Contenido, cat *Catalogo) documento.Encabezado {
	e := c.Empresa
	lineas := []string{}
	if e.NIT != "" {
		lineas = append(lineas, "NIT "+e.NIT)
	}
	contacto := strings.TrimSpace(strings.Join(noVacios(e.Direccion, e.Telefono, e.Email), " · "))
	if contacto != "" {
		lineas = append(lineas, contacto)
	}
	return documento.Encabezado{
		Titulo:    e.Nombre,
		Subtitulo: fmt.Sprintf("%s No. %s", cat.Titulo, c.NumeroContrato),
		Lineas:    lineas,
	}
}

func paginaDatos(c *Contenido, cat *Catalogo) documento.Pagina {
	cl := c.Cliente
	permanencia := "Sin permanencia mínima"
	if c.TipoPermanencia == model.ConPermanencia && c.Permanencia != nil {
		permanencia = fmt.Sprintf("Con permanencia mínima de %d meses", c.Permanencia.Meses)
	}

	var servicios documento.Bloque
	if c.SinServicios || len(c.Servicios) == 0 {
		servicios = documento.Parrafo{Texto: cat.SinServicios}
	} else {
		t := documento.Tabla{
			Columnas: []string{"Plan", "Servicio", "Detalle"},
			Anchos:   []float64{0.4, 0.2, 0.4},
			Alinear:  []string{"L", "L", "L"},
		}
		for _, l := range c.Servicios {
			t.Filas = append(t.Filas, []string{l.Plan, nombreCategoria(l.Categoria), l.Detalle})
		}
		servicios = t
	}

	return documento.Pagina{Secciones: []documento.Seccion{
		{Bloques: []documento.Bloque{encabezado(c, cat), documento.Parrafo{Texto: cat.Subtitulo, Pequeno: true}}},
		{Titulo: "Datos del contrato", Bloques: []documento.Bloque{documento.CamposValor{Campos: []documento.Campo{
			{Etiqueta: "Número de contrato", Valor: c.NumeroContrato},
			{Etiqueta: "Fecha de inicio", Valor: Fecha(c.FechaInicio)},
			{Etiqueta: "Permanencia", Valor: permanencia},
		}}}},
		{Titulo: "Datos del usuario", Bloques: []documento.Bloque{documento.CamposValor{Campos: []documento.Campo{
			{Etiqueta: "Nombre", Valor: cl.Nombre},
			{Etiqueta: "Identificación", Valor: cl.Identificacion},
			{Etiqueta: "Teléfono", Valor: cl.Telefono},
			{Etiqueta: "Correo", Valor: cl.Email},
			{Etiqueta: "Dirección de instalación", Valor: strings.Join(noVacios(cl.Direccion, cl.Barrio, cl.Ciudad), ", ")},
			{Etiqueta: "Estrato", Valor: estrato(cl.Estrato)},
		}}}},
		{Titulo: "Objeto", Bloques: []documento.Bloque{documento.Parrafo{Texto: cat.Objeto}}},
		{Titulo: "Servicios contratados", Bloques: []documento.Bloque{servicios}},
		{Titulo: "Condiciones del servicio", Bloques: []documento.Bloque{documento.Lista{Items: cat.CondicionesServicio, Numerada: true}}},
	}}
}

func paginaCondiciones(c *Contenido, cat *Catalogo) documento.Pagina {
	precios := documento.Tabla{
		Columnas: []string{"Servicio", "Valor neto", "IVA 19%", "Total mensual"},
		Anchos:   []float64{0.4, 0.2, 0.2, 0.2},
		Alinear:  []string{"L", "R", "R", "R"},
	}
	if c.SinServicios || len(c.Servicios) == 0 {
		precios.Filas = append(precios.Filas, []string{cat.SinServicios, "", "", ""})
	} else {
		for _, l := range c.Servicios {
			precios.Filas = append(precios.Filas, []string{
				fmt.Sprintf("%s (%s)", l.Plan, nombreCategoria(l.Categoria)),
				Moneda(l.Neto), Moneda(l.IVA), Moneda(l.Total),
			})
		}
		for _, b := range []struct {
			nombre string
			s      Subtotal
		}{{"Subtotal internet", c.Totales.Internet}, {"Subtotal televisión", c.Totales.Television}} {
			if b.s.Total.IsZero() {
				continue
			}
			precios.Filas = append(precios.Filas, []string{b.nombre, Moneda(b.s.Neto), Moneda(b.s.IVA), Moneda(b.s.Total)})
		}
	}
	precios.Pie = []string{"TOTAL", Moneda(c.Totales.Neto), Moneda(c.Totales.IVA), Moneda(c.Totales.Total)}

	firma := []documento.Bloque{
		documento.Parrafo{Texto: cat.Aceptacion},
		documento.BloqueFirmas{Firmantes: []documento.Firmante{
			{Rol: "EL USUARIO", Nombre: c.Cliente.Nombre, Identificacion: "CC " + c.Cliente.Identificacion},
			{Rol: "LA EMPRESA", Nombre: c.Empresa.Nombre, Identificacion: "NIT " + c.Empresa.NIT},
		}},
	}
	if c.URLVerificacion != "" {
		firma = append(firma, documento.CodigoQR{
			Contenido: c.URLVerificacion,
			Leyenda:   "Verifique la autenticidad de este contrato escaneando el código",
		})
	}

	return documento.Pagina{Secciones: []documento.Seccion{
		{Bloques: []documento.Bloque{encabezado(c, cat)}},
		{Titulo: "Condiciones comerciales", Bloques: []documento.Bloque{
			precios,
			documento.CamposValor{Campos: []documento.Campo{
				{Etiqueta: "Cargo de conexión", Valor: Moneda(c.CostoInstalacion)},
			}},
		}},
		{Titulo: "Obligaciones del usuario", Bloques: []documento.Bloque{documento.Lista{Items: cat.ObligacionesUsuario}}},
		{Titulo: "Obligaciones de la empresa", Bloques: []documento.Bloque{documento.Lista{Items: cat.ObligacionesEmpresa}}},
		{Titulo: "Aceptación", Bloques: firma},
	}}
}

func paginaPermanencia(c *Contenido, cat *Catalogo) documento.Pagina {
	p := c.Permanencia
	texto := strings.NewReplacer(
		"{meses}", strconv.Itoa(p.Meses),
		"{costo}", Moneda(p.CostoInstalacion),
	).Replace(cat.Permanencia.Texto)

	tabla := documento.Tabla{
		Columnas: []string{"Mes de terminación", "Valor a pagar"},
		Anchos:   []float64{0.5, 0.5},
		Alinear:  []string{"C", "R"},
	}
	for _, pen := range p.Penalidades {
		tabla.Filas = append(tabla.Filas, []string{strconv.Itoa(pen.Mes), Moneda(pen.Valor)})
	}

	return documento.Pagina{Secciones: []documento.Seccion{
		{Bloques: []documento.Bloque{encabezado(c, cat)}},
		{Titulo: cat.Permanencia.Titulo, Bloques: []documento.Bloque{
			documento.Parrafo{Texto: texto},
			tabla,
			documento.Parrafo{Texto: cat.Permanencia.Nota, Pequeno: true},
			documento.BloqueFirmas{Firmantes: []documento.Firmante{
				{Rol: "EL USUARIO", Nombre: c.Cliente.Nombre, Identificacion: "CC " + c.Cliente.Identificacion},
			}},
		}},
	}}
}

func nombreCategoria(cat string) string {
	switch cat {
	case CategoriaInternet:
		return "Internet"
	case CategoriaTelevision:
		return "Televisión"
	default:
		return cat
	}
}

func estrato(e int) string {
	if e <= 0 {
		return ""
	}
	return strconv.Itoa(e)
}

func noVacios(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
