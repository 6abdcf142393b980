package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectTypo(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"a@gmail.co", "a@gmail.com", true},
		{"a@gmail.cm", "a@gmail.com", true},
		{"a@gmai.com", "a@gmail.com", true},
		{"a@gmial.com", "a@gmail.com", true},
		{"a@yahoo.co", "a@yahoo.com", true},
		{"a@yahoo.cm", "a@yahoo.com", true},
		{"a@hotmail.co", "a@hotmail.com", true},
		{"a@hotmail.cm", "a@hotmail.com", true},
		{"a@outlook.co", "a@outlook.com", true},
		{"a@outlook.cm", "a@outlook.com", true},
		{"a@gmail.com", "a@gmail.com", false},
		{"a@notgmail.co.uk", "a@notgmail.co.uk", false},
		{"a@notgmail.co", "a@notgmail.co", false},
		{"a@sub.gmail.co", "a@sub.gmail.co", false},
		{"a@gmail.co.uk", "a@gmail.co.uk", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := CorrectTypo(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestCorrectTypo_Idempotent(t *testing.T) {
	once, _ := CorrectTypo("x@gmial.com")
	twice, changed := CorrectTypo(once)
	assert.Equal(t, once, twice)
	assert.False(t, changed)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@gmail.co", NormalizeEmail("  User@GMAIL.CO \n"))
	assert.Equal(t, "", NormalizeEmail("   "))
}
