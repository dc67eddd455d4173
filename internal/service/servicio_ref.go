package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"erppsi/internal/apierror"
)

// RefKind tells a single-service reference from a multi-service one.
type RefKind int

const (
	RefVacia RefKind = iota
	RefUnica
	RefMultiple
)

// ServicioRef is the parsed form of contratos.servicio_id, which stores
// either a bare integer ("12") or a JSON array of integers ("[12,13]").
type ServicioRef struct {
	Kind RefKind
	IDs  []uint
}

// ParseServicioRef parses a raw servicio_id once at the boundary. An empty
// value yields RefVacia; anything that is neither form is reported as
// apierror.ErrMalformedServiceReference.
func ParseServicioRef(raw string) (ServicioRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ServicioRef{Kind: RefVacia}, nil
	}

	if strings.HasPrefix(s, "[") {
		var ids []uint
		if err := json.Unmarshal([]byte(s), &ids); err != nil {
			return ServicioRef{}, malformada(raw, err)
		}
		if len(ids) == 0 {
			return ServicioRef{}, malformada(raw, fmt.Errorf("lista vacia"))
		}
		for _, id := range ids {
			if id == 0 {
				return ServicioRef{}, malformada(raw, fmt.Errorf("id 0"))
			}
		}
		return ServicioRef{Kind: RefMultiple, IDs: ids}, nil
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return ServicioRef{}, malformada(raw, fmt.Errorf("no es entero positivo"))
	}
	return ServicioRef{Kind: RefUnica, IDs: []uint{uint(id)}}, nil
}

func malformada(raw string, cause error) error {
	return apierror.Wrap(apierror.KindMalformedServiceReference, "",
		fmt.Errorf("servicio_id %q: %w", raw, cause))
}
