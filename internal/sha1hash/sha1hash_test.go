package sha1hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	cases := []struct {
		in  string
		hex string
	}{
		{"", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
	}
	for _, c := range cases {
		assert.Equal(t, c.hex, Sum([]byte(c.in)).String())
	}
}

func TestStreaming(t *testing.T) {
	d := New()
	_, _ = d.Write([]byte("a"))
	_, _ = d.Write([]byte("bc"))
	assert.Equal(t, Sum([]byte("abc")), d.Sum())

	d.Reset()
	_, _ = d.Write(nil)
	assert.Equal(t, Sum(nil), d.Sum())
}

func TestFromHex(t *testing.T) {
	h, err := FromHex("a9993e364706816aba3e25717850c26c9cd0d89d")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, Sum([]byte("abc")), h)

	_, err = FromHex("a9993e")
	assert.Error(t, err)
}
