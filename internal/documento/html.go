package documento

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/skip2/go-qrcode"
)

const plantillaHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Titulo}}</title>
<style>
@page { size: {{mm .Opciones.AnchoMM}} {{mm .Opciones.AltoMM}}; margin: {{mm .Opciones.MargenMM}}; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 9pt; color: #111; }
.pagina { page-break-after: always; }
.pagina:last-child { page-break-after: auto; }
h1 { font-size: 13pt; text-align: center; margin: 0; }
h2 { font-size: 10pt; background: #e6e6e6; padding: 2pt 4pt; }
table { width: 100%; border-collapse: collapse; }
td, th { border: 0.5pt solid #999; padding: 2pt 4pt; }
.campos td { border: none; }
.pequeno { font-size: 7pt; color: #555; }
.firmas td { border: none; padding-top: 40pt; text-align: center; }
</style>
</head>
<body>
{{- range .Paginas}}
<div class="pagina">
{{- range .Secciones}}
<section>
{{- if .Titulo}}<h2>{{.Titulo}}</h2>{{end}}
{{- range .Bloques}}{{template "bloque" .}}{{end}}
</section>
{{- end}}
</div>
{{- end}}
</body>
</html>
{{define "bloque"}}
{{- if eq (tipo .) "encabezado"}}<header><h1>{{.Titulo}}</h1><p style="text-align:center">{{.Subtitulo}}</p>{{range .Lineas}}<div class="pequeno" style="text-align:center">{{.}}</div>{{end}}</header>
{{- else if eq (tipo .) "parrafo"}}<p{{if .Pequeno}} class="pequeno"{{end}}>{{if .Negrita}}<strong>{{.Texto}}</strong>{{else}}{{.Texto}}{{end}}</p>
{{- else if eq (tipo .) "campos"}}<table class="campos">{{range .Campos}}<tr><td><strong>{{.Etiqueta}}</strong></td><td>{{.Valor}}</td></tr>{{end}}</table>
{{- else if eq (tipo .) "tabla"}}{{$t := .}}<table><thead><tr>{{range $i, $c := .Columnas}}<th style="{{ancho $t $i}}">{{$c}}</th>{{end}}</tr></thead><tbody>{{range .Filas}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>{{if .Pie}}<tfoot><tr>{{range .Pie}}<th>{{.}}</th>{{end}}</tr></tfoot>{{end}}</table>
{{- else if eq (tipo .) "lista"}}{{if .Numerada}}<ol>{{else}}<ul>{{end}}{{range .Items}}<li>{{.}}</li>{{end}}{{if .Numerada}}</ol>{{else}}</ul>{{end}}
{{- else if eq (tipo .) "firmas"}}<table class="firmas"><tr>{{range .Firmantes}}<td>______________________________<br>{{.Rol}}<br>{{.Nombre}}<br>{{.Identificacion}}</td>{{end}}</tr></table>
{{- else if eq (tipo .) "qr"}}<figure><img alt="QR" width="90" height="90" src="{{qr .Contenido}}"><figcaption class="pequeno">{{.Leyenda}}</figcaption></figure>
{{- end}}
{{- end}}`

var tmplHTML = template.Must(template.New("documento").Funcs(template.FuncMap{
	"tipo": Tipo,
	"mm":   func(v float64) template.CSS { return template.CSS(fmt.Sprintf("%.1fmm", v)) },
	"ancho": func(t Tabla, i int) template.CSS {
		if i < len(t.Anchos) {
			return template.CSS(fmt.Sprintf("width:%.2f%%", t.Anchos[i]*100))
		}
		return ""
	},
	"qr": func(contenido string) template.URL {
		png, err := QRPNG(contenido)
		if err != nil {
			return ""
		}
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	},
}).Parse(plantillaHTML))

// HTML serialises the document for engines that print HTML (headless
// Chromium). Output is byte-stable for equal documents.
func (d *Documento) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := tmplHTML.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("documento: html: %w", err)
	}
	return buf.Bytes(), nil
}

// QRPNG encodes contenido as a 256px PNG QR code.
func QRPNG(contenido string) ([]byte, error) {
	return qrcode.Encode(contenido, qrcode.Medium, 256)
}
