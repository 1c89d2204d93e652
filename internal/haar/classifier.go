package haar

import (
	"fmt"
	"strconv"
	"strings"
)

// Polarity is the comparison direction of a decision stump.
type Polarity int

const (
	// Less accepts when normalizedValue < threshold.
	Less Polarity = iota
	// Greater accepts when normalizedValue > threshold.
	Greater
)

func (p Polarity) String() string {
	if p == Greater {
		return "greater"
	}
	return "less"
}

// Classifier is a single-feature decision stump: it emits 1 if the
// feature's normalized value satisfies the polarity against threshold,
// else 0.
type Classifier struct {
	Feature   Feature
	Threshold float64
	Polarity  Polarity
}

// Decide evaluates the classifier at scan origin (winY,winX) and scale,
// returning 1 or 0.
func (c Classifier) Decide(src IntegralSource, winY, winX int, scale float64) int {
	v := NormalizedValue(src, c.Feature, winY, winX, scale)
	var accept bool
	if c.Polarity == Less {
		accept = v < c.Threshold
	} else {
		accept = v > c.Threshold
	}
	if accept {
		return 1
	}
	return 0
}

// Line serializes the classifier to its single-text-line model format:
// "sRow sCol lRow lCol type threshold polarity".
func (c Classifier) Line() string {
	polarity := 0
	if c.Polarity == Greater {
		polarity = 1
	}
	return fmt.Sprintf("%d %d %d %d %d %s %d",
		c.Feature.SRow, c.Feature.SCol, c.Feature.LRow, c.Feature.LCol,
		int(c.Feature.Type), strconv.FormatFloat(c.Threshold, 'g', -1, 64), polarity)
}

// ParseClassifierLine parses a single classifier model line.
func ParseClassifierLine(line string) (Classifier, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 {
		return Classifier{}, fmt.Errorf("haar: classifier line has %d fields, want 7: %q", len(fields), line)
	}

	ints := make([]int, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return Classifier{}, fmt.Errorf("haar: classifier line field %d: %w", i, err)
		}
		ints[i] = v
	}

	threshold, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Classifier{}, fmt.Errorf("haar: classifier threshold: %w", err)
	}

	polarityInt, err := strconv.Atoi(fields[6])
	if err != nil {
		return Classifier{}, fmt.Errorf("haar: classifier polarity: %w", err)
	}
	polarity := Less
	if polarityInt != 0 {
		polarity = Greater
	}

	return Classifier{
		Feature: Feature{
			SRow: ints[0], SCol: ints[1],
			LRow: ints[2], LCol: ints[3],
			Type: FeatureType(ints[4]),
		},
		Threshold: threshold,
		Polarity:  polarity,
	}, nil
}
