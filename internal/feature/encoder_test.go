package feature

import (
	"errors"
	"testing"

	"github.com/foodbank-planner/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder_FitTransformFirstAppearanceOrder(t *testing.T) {
	enc := NewLabelEncoder()

	codes := enc.FitTransform("food_type", []string{"dairy", "produce", "dairy", "grain", "produce"})

	assert.Equal(t, []int{0, 1, 0, 2, 1}, codes)
	assert.Equal(t, []string{"dairy", "produce", "grain"}, enc.Classes("food_type"))
}

func TestLabelEncoder_TransformIsIdempotent(t *testing.T) {
	enc := NewLabelEncoder()
	enc.FitTransform("food_type", []string{"dairy", "produce"})

	first, err := enc.Transform("food_type", []string{"produce"})
	require.NoError(t, err)
	second, err := enc.Transform("food_type", []string{"produce"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []int{1}, first)
}

func TestLabelEncoder_UnseenCategory(t *testing.T) {
	enc := NewLabelEncoder()
	enc.FitTransform("food_type", []string{"dairy", "produce"})

	_, err := enc.Transform("food_type", []string{"produce", "Dairy"})

	var unseen *domain.UnseenCategoryError
	require.True(t, errors.As(err, &unseen))
	assert.Equal(t, "food_type", unseen.Field)
	assert.Equal(t, "Dairy", unseen.Value)
	assert.Equal(t, 1, unseen.Row)
	assert.Equal(t, []string{"dairy", "produce"}, enc.Classes("food_type"), "vocabulary must not grow on transform")
}

func TestLabelEncoder_FieldsAreIndependent(t *testing.T) {
	enc := NewLabelEncoder()
	enc.FitTransform("food_type", []string{"dairy"})
	enc.FitTransform("food_item", []string{"milk", "dairy"})

	typeCodes, err := enc.Transform("food_type", []string{"dairy"})
	require.NoError(t, err)
	itemCodes, err := enc.Transform("food_item", []string{"dairy"})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, typeCodes)
	assert.Equal(t, []int{1}, itemCodes)
}

func TestLabelEncoder_TransformBeforeFit(t *testing.T) {
	enc := NewLabelEncoder()

	_, err := enc.Transform("food_type", []string{"dairy"})

	var notFitted *domain.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
	assert.False(t, enc.Fitted("food_type"))
}
