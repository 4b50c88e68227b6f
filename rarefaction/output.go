package rarefaction

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
)

// missing marks the values of a depth that could not be estimated.
const missing = "NA"

var (
	header         = []string{"depth", "lower", "median", "upper"}
	extendedHeader = []string{"mean", "sd"}
)

// FormatFloat renders v in its shortest form, keeping a trailing ".0" on
// integral values so every estimate column reads as a real number.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missing
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// WriteTSV writes one row per depth in ascending depth order: depth, lower,
// median, upper and, if extended, the mean and standard deviation. Failed
// depths are written with NA values.
func WriteTSV(w io.Writer, c *Curve, printHeader, extended bool) error {
	out := tsv.NewWriter(w)
	if printHeader {
		cols := header
		if extended {
			cols = append(append([]string(nil), header...), extendedHeader...)
		}
		for _, col := range cols {
			out.WriteString(col)
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}

	points, failures := c.Points, c.Failures
	for len(points) > 0 || len(failures) > 0 {
		if len(failures) == 0 || (len(points) > 0 && points[0].Depth < failures[0].Depth) {
			p := points[0]
			points = points[1:]
			out.WriteInt64(int64(p.Depth))
			out.WriteString(FormatFloat(p.Lower))
			out.WriteString(FormatFloat(p.Median))
			out.WriteString(FormatFloat(p.Upper))
			if extended {
				out.WriteString(FormatFloat(p.Mean))
				out.WriteString(FormatFloat(p.StdDev))
			}
		} else {
			f := failures[0]
			failures = failures[1:]
			out.WriteInt64(int64(f.Depth))
			n := len(header) - 1
			if extended {
				n += len(extendedHeader)
			}
			for i := 0; i < n; i++ {
				out.WriteString(missing)
			}
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
