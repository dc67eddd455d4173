package plantilla

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed clausulas.yaml
var clausulasDefault []byte

// Catalogo holds the fixed legal text of the contract.
type Catalogo struct {
	Titulo              string   `yaml:"titulo"`
	Subtitulo           string   `yaml:"subtitulo"`
	Objeto              string   `yaml:"objeto"`
	CondicionesServicio []string `yaml:"condiciones_servicio"`
	ObligacionesUsuario []string `yaml:"obligaciones_usuario"`
	ObligacionesEmpresa []string `yaml:"obligaciones_empresa"`
	Aceptacion          string   `yaml:"aceptacion"`
	Permanencia         struct {
		Titulo string `yaml:"titulo"`
		Texto  string `yaml:"texto"`
		Nota   string `yaml:"nota"`
	} `yaml:"permanencia"`
	SinServicios string `yaml:"sin_servicios"`
}

// CargarCatalogo reads the clause catalogue from path, or the embedded one
// when path is empty.
func CargarCatalogo(path string) (*Catalogo, error) {
	data := clausulasDefault
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("plantilla: leer catalogo: %w", err)
		}
		data = b
	}
	var c Catalogo
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("plantilla: parse catalogo: %w", err)
	}
	if c.SinServicios == "" {
		c.SinServicios = SinServicios
	}
	return &c, nil
}

// CatalogoDefault returns the embedded catalogue. It panics only if the
// embedded file is broken, which tests catch.
func CatalogoDefault() *Catalogo {
	c, err := CargarCatalogo("")
	if err != nil {
		panic(err)
	}
	return c
}
