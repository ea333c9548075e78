package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/commission"
	"github.com/nurpe/listing-carts/internal/lifecycle"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"record not found", gorm.ErrRecordNotFound, KindNotFound},
		{"duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), KindConflict},
		{"illegal transition", fmt.Errorf("%w: PAY from DRAFT", lifecycle.ErrIllegalTransition), KindInvalidState},
		{"item final", lifecycle.ErrItemFinal, KindInvalidState},
		{"empty selection", lifecycle.ErrEmptySelection, KindValidation},
		{"negative quote", commission.ErrNegativeQuote, KindValidation},
		{"anything else", errors.New("disk full"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(classify(tc.err, "cart")))
		})
	}
	assert.NoError(t, classify(nil, "cart"))
}

func TestErrorMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindNotFound, gorm.ErrRecordNotFound, "cart not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, "wrapped: cart not found", err.Error())
	assert.False(t, Retryable(err))
	assert.True(t, Retryable(newError(KindConflict, nil, "label taken")))
	assert.Equal(t, "not found", ErrNotFound.Error())
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	original := invalidInput("name is required")
	assert.Same(t, original, classify(original, "vendor"))
}
