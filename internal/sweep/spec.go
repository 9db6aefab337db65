package sweep

import (
	"fmt"

	"github.com/fxnlabs/syrk-bench/internal/bench"
	"github.com/fxnlabs/syrk-bench/internal/config"
	"github.com/fxnlabs/syrk-bench/internal/device"
)

// paramsFromSpec converts one YAML case entry to problem parameters.
func paramsFromSpec(spec config.CaseSpec) (bench.Params, error) {
	order, err := parseOrder(spec.Order)
	if err != nil {
		return bench.Params{}, err
	}
	uplo, err := parseUplo(spec.Uplo)
	if err != nil {
		return bench.Params{}, err
	}
	trans, err := parseTrans(spec.TransA)
	if err != nil {
		return bench.Params{}, err
	}

	p := bench.Params{
		Order:  order,
		Uplo:   uplo,
		TransA: trans,
		N:      spec.N,
		K:      spec.K,
		Lda:    spec.Lda,
		Ldc:    spec.Ldc,
		OffA:   spec.OffA,
		OffC:   spec.OffC,
		Alpha:  complex(spec.Alpha, spec.AlphaImag),
		Beta:   complex(spec.Beta, spec.BetaImag),
	}.WithDefaults()
	return p, p.Validate()
}

func parseOrder(s string) (device.Order, error) {
	switch s {
	case "row", "rowmajor", "row-major":
		return device.RowMajor, nil
	case "", "col", "column", "colmajor", "col-major", "column-major":
		return device.ColMajor, nil
	default:
		return 0, fmt.Errorf("unknown order %q", s)
	}
}

func parseUplo(s string) (device.Uplo, error) {
	switch s {
	case "", "upper", "u":
		return device.Upper, nil
	case "lower", "l":
		return device.Lower, nil
	default:
		return 0, fmt.Errorf("unknown uplo %q", s)
	}
}

func parseTrans(s string) (device.Transpose, error) {
	switch s {
	case "", "notrans", "n":
		return device.NoTrans, nil
	case "trans", "t":
		return device.Trans, nil
	case "conjtrans", "c":
		return device.ConjTrans, nil
	default:
		return 0, fmt.Errorf("unknown transpose %q", s)
	}
}
