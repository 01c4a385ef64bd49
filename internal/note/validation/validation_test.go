package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTitleBounds(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  *FieldError
	}{
		{"empty", "", ErrTitleTooShort},
		{"two chars", "Hi", ErrTitleTooShort},
		{"min", "Hey", nil},
		{"max", strings.Repeat("a", 50), nil},
		{"over max", strings.Repeat("a", 51), ErrTitleTooLong},
		{"multibyte counted as runes", strings.Repeat("é", 50), nil},
		{"three emoji", "🙂🙂🙂", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.title))
		})
	}
}

func TestBodyBounds(t *testing.T) {
	assert.Nil(t, Body(""))
	assert.Nil(t, Body(strings.Repeat("b", 120)))
	assert.Equal(t, ErrBodyTooLong, Body(strings.Repeat("b", 121)))
}

func TestValidateReportsAllViolations(t *testing.T) {
	err := Validate("Hi", strings.Repeat("x", 121))
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 2)
	assert.True(t, verr.Has(TitleTooShort))
	assert.True(t, verr.Has(BodyTooLong))
	assert.False(t, verr.Has(TitleTooLong))

	assert.ErrorIs(t, err, ErrTitleTooShort)
	assert.ErrorIs(t, err, ErrBodyTooLong)

	fields := verr.Fields()
	assert.Equal(t, TitleTooShort, fields[FieldTitle].Reason())
	assert.Equal(t, BodyTooLong, fields[FieldBody].Reason())
	assert.Contains(t, err.Error(), "Title must be at least 3 characters")
}

func TestSentinelAccessors(t *testing.T) {
	tests := []struct {
		err     *FieldError
		field   string
		reason  Reason
		message string
	}{
		{ErrTitleTooShort, FieldTitle, TitleTooShort, "Title must be at least 3 characters"},
		{ErrTitleTooLong, FieldTitle, TitleTooLong, "Title must be at most 50 characters"},
		{ErrBodyTooLong, FieldBody, BodyTooLong, "Text can't be more than 120 characters."},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.field, tt.err.Field())
			assert.Equal(t, tt.reason, tt.err.Reason())
			assert.Equal(t, tt.message, tt.err.Message())
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate("Hello", ""))
	assert.NoError(t, Validate("Hello", "Body"))
}

func TestValidateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringN(0, 80, -1).Draw(t, "title")
		body := rapid.StringN(0, 160, -1).Draw(t, "body")

		titleLen := len([]rune(title))
		bodyLen := len([]rune(body))
		titleOK := titleLen >= TitleMinLength && titleLen <= TitleMaxLength
		bodyOK := bodyLen <= BodyMaxLength

		err := Validate(title, body)
		if titleOK && bodyOK {
			if err != nil {
				t.Fatalf("expected %q/%q to pass, got %v", title, body, err)
			}
			return
		}
		if err == nil {
			t.Fatalf("expected %q/%q to fail", title, body)
		}
		if titleLen < TitleMinLength && !errors.Is(err, ErrTitleTooShort) {
			t.Fatalf("expected TitleTooShort for length %d, got %v", titleLen, err)
		}
		if titleLen > TitleMaxLength && !errors.Is(err, ErrTitleTooLong) {
			t.Fatalf("expected TitleTooLong for length %d, got %v", titleLen, err)
		}
		if !bodyOK && !errors.Is(err, ErrBodyTooLong) {
			t.Fatalf("expected BodyTooLong for length %d, got %v", bodyLen, err)
		}
	})
}
