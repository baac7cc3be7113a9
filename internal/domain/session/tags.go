package session

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Vocabulary is the closed set of tags sessions may carry.
type Vocabulary struct {
	Tags []string `yaml:"tags"`
}

// DefaultVocabulary returns the built-in tag set.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Tags: []string{
		"work",
		"personal",
		"research",
		"shopping",
		"social",
		"entertainment",
	}}
}

// LoadVocabulary reads a tag vocabulary from a YAML file, falling back
// to the default set when path is empty.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read tag vocabulary: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse tag vocabulary: %w", err)
	}
	if len(v.Tags) == 0 {
		return Vocabulary{}, fmt.Errorf("tag vocabulary %s defines no tags", path)
	}
	return v, nil
}

// Contains reports whether tag is part of the vocabulary.
func (v Vocabulary) Contains(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
