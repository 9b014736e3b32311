// Package netlist parses SPICE-style circuit decks: a title line, element
// cards, .model cards, and one analysis card.
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nanospice/nanospice/pkg/device"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisTRAN
	AnalysisAC
	AnalysisDC
)

type TranParam struct {
	TStep  float64
	TStop  float64
	TStart float64
	TMax   float64
	UIC    bool
}

type ACParam struct {
	Sweep  string // DEC, OCT, LIN
	Points int
	FStart float64
	FStop  float64
}

type DCParam struct {
	Source1    string
	Start1     float64
	Stop1      float64
	Increment1 float64
	Source2    string
	Start2     float64
	Stop2      float64
	Increment2 float64
}

type Deck struct {
	Title    string
	Elements []Element
	Models   map[string]device.ModelParam
	Analysis AnalysisType
	Tran     TranParam
	AC       ACParam
	DC       DCParam
}

type Element struct {
	Type   string // R, L, C, D, V, I
	Name   string
	Nodes  []string
	Value  float64
	Params map[string]string
}

var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"meg": 1e6,
	"K":   1e3,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

var (
	spaceRe = regexp.MustCompile(`\s+`)
	valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?s?$`)
)

// Parse reads a whole deck. The first line is the title; `*` starts a comment;
// `+` continues the previous card.
func Parse(input string) (*Deck, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	deck := &Deck{
		Models: make(map[string]device.ModelParam),
	}

	if scanner.Scan() {
		deck.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var pending string
	flush := func() error {
		if pending == "" {
			return nil
		}
		err := parseCard(deck, pending)
		pending = ""
		return err
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// strip trailing comment
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(line, "+") {
			if pending == "" {
				return nil, fmt.Errorf("continuation line without a preceding card: %q", line)
			}
			pending += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		pending = line
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return deck, nil
}

func parseCard(deck *Deck, line string) error {
	line = spaceRe.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotCard(deck, line)
	}

	elem, err := parseElement(line)
	if err != nil {
		return err
	}
	deck.Elements = append(deck.Elements, *elem)
	return nil
}

func parseDotCard(deck *Deck, line string) error {
	var err error

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ".end":
		return nil

	case ".model":
		return parseModel(deck, fields[1:])

	case ".op":
		deck.Analysis = AnalysisOP

	case ".tran":
		deck.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return fmt.Errorf(".tran needs at least tstep and tstop")
		}
		if deck.Tran.TStep, err = ParseValue(fields[1]); err != nil {
			return fmt.Errorf("invalid tstep: %v", err)
		}
		if deck.Tran.TStop, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("invalid tstop: %v", err)
		}
		pos := 3
		for ; pos < len(fields); pos++ {
			if strings.EqualFold(fields[pos], "uic") {
				deck.Tran.UIC = true
				continue
			}
			switch pos {
			case 3:
				if deck.Tran.TStart, err = ParseValue(fields[pos]); err != nil {
					return fmt.Errorf("invalid tstart: %v", err)
				}
			case 4:
				if deck.Tran.TMax, err = ParseValue(fields[pos]); err != nil {
					return fmt.Errorf("invalid tmax: %v", err)
				}
			}
		}
		if deck.Tran.TMax == 0 {
			deck.Tran.TMax = deck.Tran.TStep
		}

	case ".ac":
		deck.Analysis = AnalysisAC
		if len(fields) < 5 {
			return fmt.Errorf(".ac needs sweep type, points, fstart, fstop")
		}
		deck.AC.Sweep = strings.ToUpper(fields[1])
		switch deck.AC.Sweep {
		case "DEC", "OCT", "LIN":
		default:
			return fmt.Errorf("invalid AC sweep type: %s", deck.AC.Sweep)
		}
		if deck.AC.Points, err = strconv.Atoi(fields[2]); err != nil {
			return fmt.Errorf("invalid AC points: %v", err)
		}
		if deck.AC.FStart, err = ParseValue(fields[3]); err != nil {
			return fmt.Errorf("invalid fstart: %v", err)
		}
		if deck.AC.FStop, err = ParseValue(fields[4]); err != nil {
			return fmt.Errorf("invalid fstop: %v", err)
		}

	case ".dc":
		deck.Analysis = AnalysisDC
		if len(fields) < 5 {
			return fmt.Errorf(".dc needs source, start, stop, increment")
		}
		deck.DC.Source1 = fields[1]
		if deck.DC.Start1, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("invalid sweep start: %v", err)
		}
		if deck.DC.Stop1, err = ParseValue(fields[3]); err != nil {
			return fmt.Errorf("invalid sweep stop: %v", err)
		}
		if deck.DC.Increment1, err = ParseValue(fields[4]); err != nil {
			return fmt.Errorf("invalid sweep increment: %v", err)
		}
		if len(fields) >= 9 {
			deck.DC.Source2 = fields[5]
			if deck.DC.Start2, err = ParseValue(fields[6]); err != nil {
				return fmt.Errorf("invalid second sweep start: %v", err)
			}
			if deck.DC.Stop2, err = ParseValue(fields[7]); err != nil {
				return fmt.Errorf("invalid second sweep stop: %v", err)
			}
			if deck.DC.Increment2, err = ParseValue(fields[8]); err != nil {
				return fmt.Errorf("invalid second sweep increment: %v", err)
			}
		}

	default:
		return fmt.Errorf("unsupported card: %s", fields[0])
	}

	return nil
}

func parseModel(deck *Deck, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf(".model needs a name and a type")
	}

	modelName := fields[0]

	// Type may run into the opening parenthesis: "D(is=1e-14 ...)"
	typeField := fields[1]
	rest := strings.Join(fields[2:], " ")
	if name, after, found := strings.Cut(typeField, "("); found {
		typeField = name
		rest = after + " " + rest
	}
	modelType := strings.ToUpper(typeField)
	if modelType != "D" {
		return fmt.Errorf("unsupported model type: %s", modelType)
	}

	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")"))

	params := make(map[string]float64)
	for _, pair := range strings.Fields(rest) {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		parsed, err := ParseValue(value)
		if err != nil {
			return fmt.Errorf("invalid model parameter %s: %v", pair, err)
		}
		params[strings.ToLower(key)] = parsed
	}

	deck.Models[modelName] = device.ModelParam{
		Type:   modelType,
		Name:   modelName,
		Params: params,
	}
	return nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid element card: %s", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Params: make(map[string]string),
	}

	switch elem.Type {
	case "R", "L", "C":
		if len(fields) < 4 {
			return nil, fmt.Errorf("%s needs two nodes and a value", elem.Name)
		}
		elem.Nodes = fields[1:3]
		value, err := ParseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		elem.Value = value
		return elem, nil

	case "D":
		elem.Nodes = fields[1:3]
		if len(fields) > 3 {
			elem.Params["model"] = fields[3]
		}
		return elem, nil

	case "V", "I":
		return parseSource(elem, fields)

	default:
		return nil, fmt.Errorf("unsupported device type: %s (card %q)", elem.Type, line)
	}
}

func parseSource(elem *Element, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%s: insufficient source parameters", fields[0])
	}

	elem.Nodes = []string{fields[1], fields[2]}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return nil, fmt.Errorf("%s: missing source type", elem.Name)
	}

	kind := strings.ToUpper(words[0])
	switch kind {
	case "DC":
		if len(words) < 2 {
			return nil, fmt.Errorf("%s: missing DC value", elem.Name)
		}
		elem.Params["type"] = "dc"
		value, err := ParseValue(words[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		elem.Value = value

	case "SIN", "PULSE", "PWL":
		key := strings.ToLower(kind)
		elem.Params["type"] = key
		elem.Params[key] = strings.Trim(strings.Join(words[1:], " "), "() ")

	case "AC":
		if len(words) < 2 {
			return nil, fmt.Errorf("%s: missing AC magnitude", elem.Name)
		}
		elem.Params["type"] = "ac"
		magnitude, err := ParseValue(words[1])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid AC magnitude: %v", elem.Name, err)
		}
		elem.Value = magnitude
		elem.Params["phase"] = "0"
		if len(words) > 2 {
			elem.Params["phase"] = words[2]
		}

	default:
		// Bare numeric value is shorthand for DC.
		value, err := ParseValue(words[0])
		if err != nil {
			return nil, fmt.Errorf("%s: unsupported source type: %s", elem.Name, words[0])
		}
		elem.Params["type"] = "dc"
		elem.Value = value
	}

	return elem, nil
}

// ParseValue parses a number with an optional engineering suffix: "4.7k",
// "100n", "2meg". A trailing "s" unit letter is tolerated.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if matches[2] != "" {
		if multiplier, ok := unitMap[matches[2]]; ok {
			num *= multiplier
		}
	}
	return num, nil
}
