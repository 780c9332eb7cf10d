package model

// ForkChoiceOutcome is the result of comparing a candidate block against
// the tip
type ForkChoiceOutcome int

// Fork choice outcomes
const (
	ForkChoiceDiscard ForkChoiceOutcome = iota
	ForkChoiceValid
	ForkChoiceIdentical
	ForkChoiceDoubleForging
	ForkChoiceTieBreak
	ForkChoiceDifferentChain
)

var forkChoiceOutcomeStrings = map[ForkChoiceOutcome]string{
	ForkChoiceDiscard:        "DISCARD",
	ForkChoiceValid:          "VALID",
	ForkChoiceIdentical:      "IDENTICAL",
	ForkChoiceDoubleForging:  "DOUBLE_FORGING",
	ForkChoiceTieBreak:       "TIE_BREAK",
	ForkChoiceDifferentChain: "DIFFERENT_CHAIN",
}

func (o ForkChoiceOutcome) String() string {
	if s, ok := forkChoiceOutcomeStrings[o]; ok {
		return s
	}
	return "UNKNOWN"
}
