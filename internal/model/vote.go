package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Label is a voter's opinion about a record.
type Label int

// Label constants. The integer values are part of the output contract.
const (
	LabelAbstain Label = -1
	LabelTrust   Label = 0
	LabelUntrust Label = 1
)

// String returns the label name.
func (l Label) String() string {
	switch l {
	case LabelTrust:
		return "trust"
	case LabelUntrust:
		return "untrust"
	default:
		return "abstain"
	}
}

// Vote is one labeling function's output for one record.
type Vote struct {
	Source     string
	Label      Label
	Confidence float64
}

// Abstain returns a non-opinion from source.
func Abstain(source string) Vote {
	return Vote{Source: source, Label: LabelAbstain}
}

// Untrust returns an untrustworthy vote with the given confidence.
func Untrust(source string, confidence float64) Vote {
	return Vote{Source: source, Label: LabelUntrust, Confidence: clampUnit(confidence)}
}

// Trust returns a trustworthy vote with the given confidence.
func Trust(source string, confidence float64) Vote {
	return Vote{Source: source, Label: LabelTrust, Confidence: clampUnit(confidence)}
}

// Fired reports whether the voter expressed an opinion.
func (v Vote) Fired() bool {
	return v.Label != LabelAbstain
}

func clampUnit(f float64) float64 {
	switch {
	case f < 0 || f != f:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// VoteSet is the ordered output of the labeling suite for one record.
type VoteSet []Vote

// MarshalJSON renders the set as {"name": [label, confidence], ...} in suite order.
func (vs VoteSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(v.Source)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(":[")
		buf.WriteString(strconv.Itoa(int(v.Label)))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatFloat(v.Confidence, 'f', -1, 64))
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fired returns only the votes that did not abstain.
func (vs VoteSet) Fired() VoteSet {
	out := make(VoteSet, 0, len(vs))
	for _, v := range vs {
		if v.Fired() {
			out = append(out, v)
		}
	}
	return out
}
