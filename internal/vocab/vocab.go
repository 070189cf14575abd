// Package vocab loads the ordered class vocabulary the model was trained on.
// Position i of the vocabulary names output unit i of the model.
package vocab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Brownie44l1/classify-api/internal/errs"
)

// Vocabulary is an immutable ordered list of unique class labels.
type Vocabulary struct {
	labels []string
	sorted []string
}

// New validates labels and returns a Vocabulary holding a private copy.
func New(labels []string) (*Vocabulary, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	seen := make(map[string]int, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if prev, ok := seen[l]; ok {
			return nil, fmt.Errorf("label %q appears at positions %d and %d", l, prev, i)
		}
		seen[l] = i
	}

	own := append([]string(nil), labels...)
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return &Vocabulary{labels: own, sorted: sorted}, nil
}

// Load reads a vocabulary resource. The resource is a JSON array of strings;
// a plain text file with one label per line is accepted as well.
// Any failure is a FatalStartup error.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "read vocabulary %s", path)
	}
	labels, err := parse(data)
	if err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "parse vocabulary %s", path)
	}
	v, err := New(labels)
	if err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "invalid vocabulary %s", path)
	}
	return v, nil
}

func parse(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var labels []string
		if err := json.Unmarshal(trimmed, &labels); err != nil {
			return nil, err
		}
		return labels, nil
	}

	var labels []string
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	return labels, nil
}

// Len is the number of classes, equal to the model's output width.
func (v *Vocabulary) Len() int { return len(v.labels) }

// Label returns the label at model index i.
func (v *Vocabulary) Label(i int) string { return v.labels[i] }

// Labels returns a copy of the labels in model index order.
func (v *Vocabulary) Labels() []string {
	return append([]string(nil), v.labels...)
}

// Sorted returns a copy of the labels in lexicographic order.
func (v *Vocabulary) Sorted() []string {
	return append([]string(nil), v.sorted...)
}

// DisplayName renders a label for humans: underscores become spaces.
func DisplayName(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}
