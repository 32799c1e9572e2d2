package model

import (
	"fmt"
	"slices"
)

// Question is one multiple-choice step of the survey. The index of an option
// in Options is its selection identifier.
type Question struct {
	Text    string   `yaml:"text" json:"text"`
	Options []string `yaml:"options" json:"options"`
}

type CatalogItem struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Price       string `yaml:"price" json:"price"`
	// Tags maps a question ordinal to the option indices this item matches.
	Tags map[int][]int `yaml:"tags" json:"tags"`
}

// Matches reports whether answer is one of the item's tagged options for
// question q.
func (c CatalogItem) Matches(q, answer int) bool {
	return slices.Contains(c.Tags[q], answer)
}

// Survey is the static configuration loaded once at startup.
type Survey struct {
	Welcome   string        `yaml:"welcome" json:"welcome"`
	Questions []Question    `yaml:"questions" json:"questions"`
	Catalog   []CatalogItem `yaml:"catalog" json:"catalog"`
}

// Validate checks the survey for structural problems. nameLimit, when
// positive, bounds the length of catalog item names.
func (s *Survey) Validate(nameLimit int) error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidSurvey)
	}
	for i, q := range s.Questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidSurvey, i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidSurvey, i)
		}
	}

	seen := make(map[string]bool, len(s.Catalog))
	for _, item := range s.Catalog {
		if item.Name == "" {
			return fmt.Errorf("%w: catalog item without name", ErrInvalidSurvey)
		}
		if seen[item.Name] {
			return fmt.Errorf("%w: duplicate catalog item %q", ErrInvalidSurvey, item.Name)
		}
		seen[item.Name] = true
		if nameLimit > 0 && len(item.Name) > nameLimit {
			return fmt.Errorf("%w: catalog item name %q longer than %d bytes", ErrInvalidSurvey, item.Name, nameLimit)
		}
		for q, answers := range item.Tags {
			if q < 0 || q >= len(s.Questions) {
				return fmt.Errorf("%w: item %q tags unknown question %d", ErrInvalidSurvey, item.Name, q)
			}
			for _, a := range answers {
				if a < 0 || a >= len(s.Questions[q].Options) {
					return fmt.Errorf("%w: item %q tags unknown option %d of question %d", ErrInvalidSurvey, item.Name, a, q)
				}
			}
		}
	}
	return nil
}
