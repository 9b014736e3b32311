// Package rawfile reads and writes ASCII rawfiles in the layout ngspice and
// compatible waveform viewers use. Variable type names come from the quantity
// kind table, so files written here load in stock plotting tools.
package rawfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

const dateLayout = "Mon Jan 2 15:04:05 2006"

// Write emits set as an ASCII rawfile. The scale vector, when present, is
// written as variable 0; the remaining vectors keep their insertion order.
func Write(w io.Writer, set *result.Set) error {
	names := variableOrder(set)
	if len(names) == 0 {
		return fmt.Errorf("rawfile: empty result set")
	}

	points := set.Points()
	for _, name := range names {
		if n := set.Get(name).Len(); n != points {
			return fmt.Errorf("rawfile: vector %s has %d points, expected %d", name, n, points)
		}
	}

	isComplex := set.Complex()
	flags := "real"
	if isComplex {
		flags = "complex"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Title: %s\n", set.Title)
	fmt.Fprintf(bw, "Date: %s\n", set.Date.Format(dateLayout))
	fmt.Fprintf(bw, "Plotname: %s\n", set.Plotname)
	fmt.Fprintf(bw, "Flags: %s\n", flags)
	fmt.Fprintf(bw, "No. Variables: %d\n", len(names))
	fmt.Fprintf(bw, "No. Points: %d\n", points)

	fmt.Fprintln(bw, "Variables:")
	for i, name := range names {
		fmt.Fprintf(bw, "\t%d\t%s\t%s\n", i, name, set.Get(name).Kind.RawName())
	}

	fmt.Fprintln(bw, "Values:")
	for p := 0; p < points; p++ {
		for i, name := range names {
			vec := set.Get(name)
			if i == 0 {
				fmt.Fprintf(bw, "%d\t", p)
			} else {
				fmt.Fprint(bw, "\t")
			}
			if isComplex {
				c := vec.Complex(p)
				fmt.Fprintf(bw, "%s,%s\n", formatFloat(real(c)), formatFloat(imag(c)))
			} else {
				fmt.Fprintf(bw, "%s\n", formatFloat(vec.Real(p)))
			}
		}
	}

	return bw.Flush()
}

// Read parses an ASCII rawfile back into a result set. Unknown variable type
// names are kept as NO_TYPE rather than rejected.
func Read(r io.Reader) (*result.Set, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		title, plotname string
		date            time.Time
		isComplex       bool
		numVars         = -1
		numPoints       = -1
	)

	// Header section
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("rawfile: malformed header line: %q", line)
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Title":
			title = value
		case "Date":
			if d, err := time.Parse(dateLayout, value); err == nil {
				date = d
			}
		case "Plotname":
			plotname = value
		case "Flags":
			switch value {
			case "real":
				isComplex = false
			case "complex":
				isComplex = true
			default:
				return nil, fmt.Errorf("rawfile: unknown flags: %q", value)
			}
		case "No. Variables":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("rawfile: bad variable count: %v", err)
			}
			numVars = n
		case "No. Points":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("rawfile: bad point count: %v", err)
			}
			numPoints = n
		case "Variables":
			goto variables
		default:
			// Command or option lines are ignored, as ngspice does.
		}
	}
	return nil, fmt.Errorf("rawfile: missing Variables section")

variables:
	if numVars <= 0 || numPoints < 0 {
		return nil, fmt.Errorf("rawfile: variable/point counts missing before Variables section")
	}

	set := result.NewSet(title, plotname)
	set.Date = date

	names := make([]string, 0, numVars)
	for i := 0; i < numVars; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("rawfile: truncated Variables section")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			return nil, fmt.Errorf("rawfile: malformed variable line: %q", sc.Text())
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil || idx != i {
			return nil, fmt.Errorf("rawfile: variable index mismatch on line %q", sc.Text())
		}
		name := fields[1]
		kind := quantity.KindFromRawName(fields[2])

		var vec *result.Vector
		if isComplex {
			vec = result.NewComplexVector(name, kind)
		} else {
			vec = result.NewRealVector(name, kind)
		}
		if err := set.Add(vec); err != nil {
			return nil, fmt.Errorf("rawfile: %v", err)
		}
		names = append(names, name)
	}

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "Values:" {
		return nil, fmt.Errorf("rawfile: missing Values section")
	}

	for p := 0; p < numPoints; p++ {
		for i, name := range names {
			// Writers commonly separate points with blank lines.
			var fields []string
			for len(fields) == 0 {
				if !sc.Scan() {
					return nil, fmt.Errorf("rawfile: truncated Values section at point %d", p)
				}
				fields = strings.Fields(sc.Text())
			}
			valueStr := fields[len(fields)-1]
			if i == 0 {
				if len(fields) != 2 {
					return nil, fmt.Errorf("rawfile: malformed point line: %q", sc.Text())
				}
				idx, err := strconv.Atoi(fields[0])
				if err != nil || idx != p {
					return nil, fmt.Errorf("rawfile: point index mismatch on line %q", sc.Text())
				}
			}

			vec := set.Get(name)
			if isComplex {
				c, err := parseComplex(valueStr)
				if err != nil {
					return nil, fmt.Errorf("rawfile: point %d, vector %s: %v", p, name, err)
				}
				if err := vec.AppendComplex(c); err != nil {
					return nil, err
				}
			} else {
				x, err := strconv.ParseFloat(valueStr, 64)
				if err != nil {
					return nil, fmt.Errorf("rawfile: point %d, vector %s: %v", p, name, err)
				}
				if err := vec.AppendReal(x); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("rawfile: %v", err)
	}

	if len(names) > 0 {
		if err := set.SetScale(names[0]); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func variableOrder(set *result.Set) []string {
	names := set.Names()
	scale := set.Scale()
	if scale == nil {
		return names
	}

	ordered := make([]string, 0, len(names))
	ordered = append(ordered, scale.Name)
	for _, name := range names {
		if name != scale.Name {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'e', 15, 64)
}

func parseComplex(s string) (complex128, error) {
	rePart, imPart, found := strings.Cut(s, ",")
	if !found {
		return 0, fmt.Errorf("malformed complex value: %q", s)
	}
	re, err := strconv.ParseFloat(rePart, 64)
	if err != nil {
		return 0, err
	}
	im, err := strconv.ParseFloat(imPart, 64)
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}
