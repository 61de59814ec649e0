package arxivfeed

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "no entries",
			body: `<?xml version="1.0"?><feed><title>ArXiv Query</title></feed>`,
			want: nil,
		},
		{
			name: "single entry",
			body: `<feed><entry><id>a</id></entry></feed>`,
			want: []string{`<entry><id>a</id></entry>`},
		},
		{
			name: "entry with attributes spans lines",
			body: "<feed>\n<entry xml:lang=\"en\">\n  <id>a</id>\n</entry>\n<entry>\n<id>b</id></entry></feed>",
			want: []string{
				"<entry xml:lang=\"en\">\n  <id>a</id>\n</entry>",
				"<entry>\n<id>b</id></entry>",
			},
		},
		{
			name: "unterminated entry ends the sequence",
			body: `<feed><entry><id>a</id></entry><entry><id>b</id>`,
			want: []string{`<entry><id>a</id></entry>`},
		},
		{
			name: "longer element names are not entries",
			body: `<feed><entry-list/><entryfoo>x</entryfoo><entry><id>a</id></entry></feed>`,
			want: []string{`<entry><id>a</id></entry>`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Extract([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, slices.Collect(seq))
		})
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	_, err := Extract([]byte{'<', 'e', 0xff, 0xfe})
	require.Error(t, err)
	assert.True(t, IsParsing(err))

	var perr *ParsingError
	assert.ErrorAs(t, err, &perr)
}

func TestExtractIsRestartable(t *testing.T) {
	seq, err := Extract([]byte(`<entry>1</entry><entry>2</entry><entry>3</entry>`))
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Len(t, first, 3)
	assert.Equal(t, first, second)

	// Stopping early must not panic or leak.
	for frag := range seq {
		assert.Equal(t, "<entry>1</entry>", frag)
		break
	}
}
