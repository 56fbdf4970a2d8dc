// export_test.go exports private functions for white-box testing.
package stylesheet

import (
	"github.com/bep/godartsass/v2"
	"go.trai.ch/kiln/internal/core/ports"
)

var ScanImports = scanImports

func NewResolver(auxiliaries map[string]ports.Source) (godartsass.ImportResolver, error) {
	f, err := newFragments(auxiliaries)
	if err != nil {
		return nil, err
	}
	return f, nil
}
