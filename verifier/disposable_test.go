package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDisposableDomains_IncludesBaseline(t *testing.T) {
	f := NewDisposableFilter(DefaultDisposableDomains(), true)
	for _, d := range []string{
		"10minutemail.com", "tempmail.org", "guerrillamail.com",
		"mailinator.com", "yopmail.com", "throwaway.email",
	} {
		assert.True(t, f.IsDisposable("someone@"+d), d)
	}
	assert.False(t, f.IsDisposable("someone@gmail.com"))
}

func TestDisposableFilter_CaseAndLastAt(t *testing.T) {
	f := NewDisposableFilter([]string{"Trash.IO"}, true)

	assert.True(t, f.IsDisposable("A@TRASH.io"))
	assert.True(t, f.IsDisposable("weird@name@trash.io"))
	assert.False(t, f.IsDisposable("trash.io@real.com"))
}

func TestDisposableFilter_Disabled(t *testing.T) {
	f := NewDisposableFilter([]string{"trash.io"}, false)
	assert.False(t, f.IsDisposable("a@trash.io"))
	assert.False(t, f.Enabled())
	assert.Equal(t, 1, f.Len())
}

func TestParseDomainList(t *testing.T) {
	got := ParseDomainList("# comment\nFoo.com\n\n  bar.net  \n")
	assert.Equal(t, []string{"foo.com", "bar.net"}, got)
}
