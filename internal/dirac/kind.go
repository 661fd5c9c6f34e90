package dirac

import (
	"fmt"
	"strings"

	"github.com/san-kum/qcdsim/internal/linop"
)

// Kind selects a 4D discretisation.
type Kind int

const (
	Wilson Kind = iota
	HamberWu
	Naik
)

var kindNames = map[Kind]string{
	Wilson:   "wilson",
	HamberWu: "hamber_wu",
	Naik:     "naik",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names printed by Kind.String, case-insensitively;
// "hamberwu" is accepted as an alias.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "hamberwu" {
		n = "hamber_wu"
	}
	for k, s := range kindNames {
		if s == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operator kind %q", linop.ErrInvalidParameter, name)
}

// New builds the 4D operator of the given kind.
func New(kind Kind, mass float64, bcs BoundaryConditions, links Links) (*Stencil, error) {
	switch kind {
	case Wilson:
		return NewWilson(mass, bcs, links), nil
	case HamberWu:
		return NewHamberWu(mass, bcs, links), nil
	case Naik:
		return NewNaik(mass, bcs, links), nil
	default:
		return nil, fmt.Errorf("%w: unknown operator kind %d", linop.ErrInvalidParameter, int(kind))
	}
}
