package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// Scorer is the optional trained classifier layer. Implementations return the
// best-scoring kind and its probability in [0,1].
type Scorer interface {
	Score(text string) (kind string, probability float64)
}

// LinearModel is a TF-IDF + linear classifier serialized as JSON. The file is
// produced offline; this side only scores.
type LinearModel struct {
	Vocab   map[string]int `json:"vocab"`
	IDF     []float64      `json:"idf"`
	Classes []string       `json:"classes"`
	Weights [][]float64    `json:"weights"` // [class][term]
	Bias    []float64      `json:"bias"`
}

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// LoadLinearModel reads a serialized model from disk. A missing file is an
// error; callers decide whether the model layer is optional.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if len(m.Classes) == 0 || len(m.Weights) != len(m.Classes) {
		return nil, fmt.Errorf("model file %s is malformed", path)
	}
	return &m, nil
}

// Score vectorizes the text with TF-IDF and returns the softmax-normalized
// top class.
func (m *LinearModel) Score(text string) (string, float64) {
	tf := map[int]float64{}
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		if idx, ok := m.Vocab[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return "", 0
	}
	for idx := range tf {
		tf[idx] = tf[idx] / float64(len(tokens)) * m.IDF[idx]
	}

	logits := make([]float64, len(m.Classes))
	for c := range m.Classes {
		s := m.Bias[c]
		for idx, v := range tf {
			s += m.Weights[c][idx] * v
		}
		logits[c] = s
	}

	// softmax with max-shift for stability
	best, maxLogit := 0, logits[0]
	for c, l := range logits {
		if l > maxLogit {
			best, maxLogit = c, l
		}
	}
	var sum float64
	for _, l := range logits {
		sum += math.Exp(l - maxLogit)
	}
	return m.Classes[best], 1.0 / sum
}
