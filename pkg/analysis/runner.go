package analysis

import (
	"fmt"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/netlist"
	"github.com/nanospice/nanospice/pkg/result"
)

// FromDeck builds the analysis requested by the deck's dot card.
func FromDeck(deck *netlist.Deck, opts Options) (Analysis, error) {
	switch deck.Analysis {
	case netlist.AnalysisOP:
		return NewOP(opts), nil

	case netlist.AnalysisTRAN:
		if deck.Tran.TStep <= 0 || deck.Tran.TStop <= 0 {
			return nil, fmt.Errorf("transient analysis needs positive tstep and tstop")
		}
		return NewTransient(opts, deck.Tran.TStart, deck.Tran.TStop,
			deck.Tran.TStep, deck.Tran.TMax, deck.Tran.UIC), nil

	case netlist.AnalysisAC:
		return NewAC(opts, deck.AC.FStart, deck.AC.FStop, deck.AC.Points, deck.AC.Sweep), nil

	case netlist.AnalysisDC:
		dc, err := NewDCSweep(opts, deck.DC.Source1, deck.DC.Start1, deck.DC.Stop1, deck.DC.Increment1,
			deck.DC.Source2, deck.DC.Start2, deck.DC.Stop2, deck.DC.Increment2)
		if err != nil {
			return nil, err
		}
		return dc, nil
	}

	return nil, fmt.Errorf("unknown analysis type")
}

// NeedsComplexMatrix reports whether the deck's analysis solves in the complex
// domain.
func NeedsComplexMatrix(deck *netlist.Deck) bool {
	return deck.Analysis == netlist.AnalysisAC
}

// Run assembles a circuit from the deck, runs the requested analysis, and
// returns the tagged result set.
func Run(deck *netlist.Deck, opts Options) (*result.Set, error) {
	ckt, err := circuit.FromDeck(deck, NeedsComplexMatrix(deck))
	if err != nil {
		return nil, err
	}
	defer ckt.Destroy()

	an, err := FromDeck(deck, opts)
	if err != nil {
		return nil, err
	}

	if err := an.Setup(ckt); err != nil {
		return nil, err
	}
	if err := an.Execute(); err != nil {
		return nil, err
	}

	return an.Results(), nil
}
