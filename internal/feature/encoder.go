package feature

import (
	"github.com/foodbank-planner/backend-go/internal/domain"
)

// LabelEncoder maps category values to integer codes, one vocabulary per field.
// Codes are assigned in order of first appearance during FitTransform and are
// never reused. Transform only looks codes up.
type LabelEncoder struct {
	vocab map[string]map[string]int
	order map[string][]string
}

// NewLabelEncoder creates an empty encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		vocab: make(map[string]map[string]int),
		order: make(map[string][]string),
	}
}

// FitTransform learns the vocabulary of field from values, replacing any
// previous vocabulary for that field, and returns the codes.
func (e *LabelEncoder) FitTransform(field string, values []string) []int {
	codes := make(map[string]int)
	order := make([]string, 0)
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := codes[v]
		if !ok {
			code = len(order)
			codes[v] = code
			order = append(order, v)
		}
		out[i] = code
	}
	e.vocab[field] = codes
	e.order[field] = order
	return out
}

// Transform returns the codes of values using the learned vocabulary of field.
func (e *LabelEncoder) Transform(field string, values []string) ([]int, error) {
	codes, ok := e.vocab[field]
	if !ok {
		return nil, &domain.NotFittedError{Component: "label encoder for " + field}
	}
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := codes[v]
		if !ok {
			return nil, &domain.UnseenCategoryError{Field: field, Value: v, Row: i}
		}
		out[i] = code
	}
	return out, nil
}

// Classes returns the vocabulary of field ordered by code.
func (e *LabelEncoder) Classes(field string) []string {
	order := e.order[field]
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Fitted reports whether field has a vocabulary.
func (e *LabelEncoder) Fitted(field string) bool {
	_, ok := e.vocab[field]
	return ok
}
