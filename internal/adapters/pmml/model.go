// Package pmml loads a PMML RegressionModel classifier and evaluates it
// in-process. A Model is immutable once loaded and is safe for concurrent
// use.
package pmml

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Normalization methods supported for classification tables.
const (
	NormSoftmax   = "softmax"
	NormSimplemax = "simplemax"
	NormNone      = "none"
)

const (
	usageActive     = "active"
	featureProb     = "probability"
	functionClassif = "classification"
)

type predictor struct {
	field    string
	coef     float64
	exponent int
}

type table struct {
	category   string
	intercept  float64
	predictors []predictor
}

type outputSpec struct {
	name     string
	category string
}

// Model is a verified, evaluable regression classifier.
type Model struct {
	name         string
	version      string
	normalize    string
	inputs       []string
	replacements map[string]float64
	tables       []table
	outputs      []outputSpec
}

// Load reads, parses and verifies the PMML document at path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pmml %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load pmml %q: %w", path, err)
	}
	return m, nil
}

// Parse decodes and verifies a PMML document.
func Parse(r io.Reader) (*Model, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return compile(&doc)
}

func compile(doc *document) (*Model, error) {
	switch {
	case doc.TreeModel != nil, doc.MiningModel != nil, doc.NeuralNetwork != nil,
		doc.GeneralRegression != nil, doc.SupportVectorModel != nil:
		return nil, fmt.Errorf("%w: only RegressionModel is supported", ErrUnsupported)
	case doc.RegressionModel == nil:
		return nil, fmt.Errorf("%w: no RegressionModel element", ErrInvalidModel)
	}
	rm := doc.RegressionModel

	if rm.FunctionName != functionClassif {
		return nil, fmt.Errorf("%w: functionName %q, want %q", ErrUnsupported, rm.FunctionName, functionClassif)
	}

	norm := strings.ToLower(strings.TrimSpace(rm.NormalizationMethod))
	if norm == "" {
		norm = NormNone
	}
	if norm != NormSoftmax && norm != NormSimplemax && norm != NormNone {
		return nil, fmt.Errorf("%w: normalizationMethod %q", ErrUnsupported, rm.NormalizationMethod)
	}

	dictionary := make(map[string]bool, len(doc.DataDictionary.Fields))
	for _, f := range doc.DataDictionary.Fields {
		dictionary[f.Name] = true
	}

	m := &Model{
		name:         rm.ModelName,
		version:      doc.Header.Application.Version,
		normalize:    norm,
		replacements: make(map[string]float64),
	}
	if m.name == "" {
		m.name = doc.Header.Application.Name
	}

	for _, mf := range rm.MiningSchema.Fields {
		if !dictionary[mf.Name] {
			return nil, fmt.Errorf("%w: mining field %q not in DataDictionary", ErrInvalidModel, mf.Name)
		}
		usage := mf.UsageType
		if usage == "" {
			usage = usageActive
		}
		if usage != usageActive {
			continue
		}
		m.inputs = append(m.inputs, mf.Name)
		if mf.MissingValueReplacement != "" {
			v, err := strconv.ParseFloat(mf.MissingValueReplacement, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: missingValueReplacement for %q: %w", ErrInvalidModel, mf.Name, err)
			}
			m.replacements[mf.Name] = v
		}
	}

	if len(rm.Tables) < 2 {
		return nil, fmt.Errorf("%w: classification needs at least 2 regression tables, got %d", ErrInvalidModel, len(rm.Tables))
	}
	seen := make(map[string]bool, len(rm.Tables))
	for _, rt := range rm.Tables {
		t, err := compileTable(rt, m.inputs)
		if err != nil {
			return nil, err
		}
		if seen[t.category] {
			return nil, fmt.Errorf("%w: duplicate targetCategory %q", ErrInvalidModel, t.category)
		}
		seen[t.category] = true
		m.tables = append(m.tables, t)
	}

	if rm.Output != nil {
		for _, of := range rm.Output.Fields {
			if of.Feature != featureProb {
				continue
			}
			if !seen[of.Value] {
				return nil, fmt.Errorf("%w: output %q references unknown category %q", ErrInvalidModel, of.Name, of.Value)
			}
			m.outputs = append(m.outputs, outputSpec{name: of.Name, category: of.Value})
		}
	}
	if len(m.outputs) == 0 {
		for _, t := range m.tables {
			m.outputs = append(m.outputs, outputSpec{name: "probability(" + t.category + ")", category: t.category})
		}
	}

	return m, nil
}

func compileTable(rt regressionTable, inputs []string) (table, error) {
	if rt.TargetCategory == "" {
		return table{}, fmt.Errorf("%w: regression table without targetCategory", ErrInvalidModel)
	}
	if len(rt.CategoricalPredictor) > 0 || len(rt.PredictorTerms) > 0 {
		return table{}, fmt.Errorf("%w: only NumericPredictor terms are supported", ErrUnsupported)
	}
	if !finite(rt.Intercept) {
		return table{}, fmt.Errorf("%w: non-finite intercept in category %q", ErrInvalidModel, rt.TargetCategory)
	}

	t := table{category: rt.TargetCategory, intercept: rt.Intercept}
	for _, np := range rt.NumericPredictors {
		if !slices.Contains(inputs, np.Name) {
			return table{}, fmt.Errorf("%w: predictor %q is not an active mining field", ErrInvalidModel, np.Name)
		}
		if !finite(np.Coefficient) {
			return table{}, fmt.Errorf("%w: non-finite coefficient for %q", ErrInvalidModel, np.Name)
		}
		exp := 1
		if np.Exponent != nil {
			exp = *np.Exponent
		}
		t.predictors = append(t.predictors, predictor{field: np.Name, coef: np.Coefficient, exponent: exp})
	}
	return t, nil
}

// Name returns "modelName@version", or just the model name without version.
func (m *Model) Name() string {
	if m.version == "" {
		return m.name
	}
	return m.name + "@" + m.version
}

// Version returns the producing application's version, if declared.
func (m *Model) Version() string { return m.version }

// Ready reports whether the model was loaded and verified.
func (m *Model) Ready() bool { return m != nil && len(m.tables) > 0 }

// InputFields returns the active mining fields in schema order.
func (m *Model) InputFields() []string { return slices.Clone(m.inputs) }

// OutputFields returns the declared probability outputs.
func (m *Model) OutputFields() []string {
	names := make([]string, len(m.outputs))
	for i, o := range m.outputs {
		names[i] = o.name
	}
	return names
}

// Evaluate scores every regression table and normalizes the scores into
// class probabilities keyed by output name. Arguments that are not active
// fields are ignored; a missing active field without a replacement value
// fails the evaluation.
func (m *Model) Evaluate(args map[string]float64) (map[string]float64, error) {
	values := make(map[string]float64, len(m.inputs))
	for _, name := range m.inputs {
		v, ok := args[name]
		if !ok {
			repl, has := m.replacements[name]
			if !has {
				return nil, fmt.Errorf("%w: %s", ErrMissingValue, name)
			}
			v = repl
		}
		if !finite(v) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, name, v)
		}
		values[name] = v
	}

	scores := make([]float64, len(m.tables))
	for i, t := range m.tables {
		s := t.intercept
		for _, p := range t.predictors {
			x := values[p.field]
			if p.exponent != 1 {
				x = math.Pow(x, float64(p.exponent))
			}
			s += p.coef * x
		}
		if !finite(s) {
			return nil, fmt.Errorf("%w: non-finite score for category %q", ErrInvalidValue, t.category)
		}
		scores[i] = s
	}

	probs, err := m.normalizeScores(scores)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]float64, len(m.tables))
	for i, t := range m.tables {
		byCategory[t.category] = probs[i]
	}
	out := make(map[string]float64, len(m.outputs))
	for _, o := range m.outputs {
		out[o.name] = byCategory[o.category]
	}
	return out, nil
}

func (m *Model) normalizeScores(scores []float64) ([]float64, error) {
	probs := make([]float64, len(scores))
	switch m.normalize {
	case NormSoftmax:
		maxScore := slices.Max(scores)
		var sum float64
		for i, s := range scores {
			probs[i] = math.Exp(s - maxScore)
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}
	case NormSimplemax:
		var sum float64
		for _, s := range scores {
			sum += s
		}
		if sum <= 0 || !finite(sum) {
			return nil, fmt.Errorf("%w: simplemax over non-positive score sum %v", ErrInvalidValue, sum)
		}
		for i, s := range scores {
			probs[i] = s / sum
		}
	default:
		copy(probs, scores)
	}
	return probs, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
