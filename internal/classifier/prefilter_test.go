package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tg-antijudi/internal/classifier"
)

func TestIsSubstantive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   \n\t", false},
		{"too short", "hai", false},
		{"digits", "0812345678", false},
		{"punctuation", "!!!???...", false},
		{"single short token", "gacor", false},
		{"single long token", "slotgacor88", true},
		{"short after trim", "  ok!  ", false},
		{"sentence", "daftar sekarang bonus 100%", true},
		{"multibyte counted by rune", "ああああ", false},
		{"two words", "ya ok", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifier.IsSubstantive(tt.text, 5))
		})
	}
}
