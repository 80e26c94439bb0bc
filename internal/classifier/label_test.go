package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{"1": true, " 0\n": false, "`1`": true, "1.": true, "\"0\"": false} {
		got, err := parseLabel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"maybe", "10", "1 maybe", "01", ""} {
		_, err := parseLabel(in)
		assert.Error(t, err, in)
	}
}
