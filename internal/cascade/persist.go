package cascade

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kestrelvision/facecascade/internal/haar"
)

// Lines serializes a single stage to its model-file block: the
// "<bias> <classifierCount>" header, one line per classifier, and the
// trailing weight line, joined with newlines.
func (s *Stage) Lines() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", formatFloat(s.Bias), len(s.Classifiers))
	weights := make([]string, len(s.Classifiers))
	for i, wc := range s.Classifiers {
		b.WriteString(wc.Classifier.Line())
		b.WriteByte('\n')
		weights[i] = formatFloat(wc.Weight)
	}
	b.WriteString(strings.Join(weights, " "))
	return b.String()
}

// Save writes the cascade to path in the plain-text model format, using a
// temp-file-then-rename so a reader never observes a partially written
// model.
//
//	<baseWindowSize> <stageCount>
//	<stage>...
//
// Each stage:
//
//	<bias> <classifierCount>
//	<classifier line>...
//	<weight1> <weight2> ... <weightN>
func (c *Cascade) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d %d\n", c.BaseWindow, len(c.Stages))
	for _, stage := range c.Stages {
		fmt.Fprintf(w, "%s %d\n", formatFloat(stage.Bias), len(stage.Classifiers))
		weights := make([]string, len(stage.Classifiers))
		for i, wc := range stage.Classifiers {
			fmt.Fprintln(w, wc.Classifier.Line())
			weights[i] = formatFloat(wc.Weight)
		}
		fmt.Fprintln(w, strings.Join(weights, " "))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush model file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}

// Load parses a cascade previously written by Save.
func Load(path string) (*Cascade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	header, err := nextLine(sc)
	if err != nil {
		return nil, fmt.Errorf("read model header: %w", err)
	}
	baseWindow, stageCount, err := parseTwoInts(header)
	if err != nil {
		return nil, fmt.Errorf("parse model header %q: %w", header, err)
	}

	c := &Cascade{BaseWindow: baseWindow, Stages: make([]Stage, 0, stageCount)}
	for s := 0; s < stageCount; s++ {
		stageHeader, err := nextLine(sc)
		if err != nil {
			return nil, fmt.Errorf("read stage %d header: %w", s, err)
		}
		biasStr, countStr, err := splitTwo(stageHeader)
		if err != nil {
			return nil, fmt.Errorf("parse stage %d header %q: %w", s, stageHeader, err)
		}
		bias, err := strconv.ParseFloat(biasStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse stage %d bias %q: %w", s, biasStr, err)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("parse stage %d classifier count %q: %w", s, countStr, err)
		}

		stage := Stage{Bias: bias, Classifiers: make([]WeightedClassifier, count)}
		for i := 0; i < count; i++ {
			line, err := nextLine(sc)
			if err != nil {
				return nil, fmt.Errorf("read stage %d classifier %d: %w", s, i, err)
			}
			clf, err := haar.ParseClassifierLine(line)
			if err != nil {
				return nil, fmt.Errorf("parse stage %d classifier %d: %w", s, i, err)
			}
			stage.Classifiers[i].Classifier = clf
		}

		weightLine, err := nextLine(sc)
		if err != nil {
			return nil, fmt.Errorf("read stage %d weights: %w", s, err)
		}
		fields := strings.Fields(weightLine)
		if len(fields) != count {
			return nil, fmt.Errorf("stage %d has %d weights, want %d", s, len(fields), count)
		}
		for i, field := range fields {
			weight, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse stage %d weight %d %q: %w", s, i, field, err)
			}
			stage.Classifiers[i].Weight = weight
		}

		c.Stages = append(c.Stages, stage)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan model file: %w", err)
	}
	return c, nil
}

// ParseStageLines parses a single stage's model-file block, as produced by
// Stage.Lines, independent of a full cascade header. Used to restore
// checkpointed stages on resume.
func ParseStageLines(block string) (*Stage, error) {
	sc := bufio.NewScanner(strings.NewReader(block))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	header, err := nextLine(sc)
	if err != nil {
		return nil, fmt.Errorf("read stage header: %w", err)
	}
	biasStr, countStr, err := splitTwo(header)
	if err != nil {
		return nil, fmt.Errorf("parse stage header %q: %w", header, err)
	}
	bias, err := strconv.ParseFloat(biasStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse stage bias %q: %w", biasStr, err)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("parse stage classifier count %q: %w", countStr, err)
	}

	stage := Stage{Bias: bias, Classifiers: make([]WeightedClassifier, count)}
	for i := 0; i < count; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, fmt.Errorf("read classifier %d: %w", i, err)
		}
		clf, err := haar.ParseClassifierLine(line)
		if err != nil {
			return nil, fmt.Errorf("parse classifier %d: %w", i, err)
		}
		stage.Classifiers[i].Classifier = clf
	}

	weightLine, err := nextLine(sc)
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	fields := strings.Fields(weightLine)
	if len(fields) != count {
		return nil, fmt.Errorf("stage has %d weights, want %d", len(fields), count)
	}
	for i, field := range fields {
		weight, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight %d %q: %w", i, field, err)
		}
		stage.Classifiers[i].Weight = weight
	}

	return &stage, nil
}

func nextLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected end of file")
	}
	return sc.Text(), nil
}

func parseTwoInts(line string) (a, b int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	a, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func splitTwo(line string) (first, second string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	return fields[0], fields[1], nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
