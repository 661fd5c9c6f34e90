package solvers

import (
	"fmt"
	"strings"

	"github.com/san-kum/qcdsim/internal/linop"
)

type Method int

const (
	CG Method = iota
	BiCGStab
	GMRES
)

var methodNames = map[Method]string{
	CG:       "cg",
	BiCGStab: "bicgstab",
	GMRES:    "gmres",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// Valid reports whether m names an implemented solver.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod maps a solver name to its Method. Unknown names are an error
// here; only Solve applies the CG fallback.
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for m, s := range methodNames {
		if s == n {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown solver %q", linop.ErrInvalidParameter, name)
}

// Methods lists the implemented solvers in a stable order.
func Methods() []Method {
	return []Method{CG, BiCGStab, GMRES}
}
