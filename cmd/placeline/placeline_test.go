package placeline_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdplaceline "github.com/jonesrussell/north-cloud/geotagger/cmd/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

func TestScan(t *testing.T) {
	t.Parallel()

	tables := reftables.MustLoadEmbedded()
	detector := placeline.NewDetector(tables.StateCodes, tables.Ambiguity)

	input := strings.Join([]string{
		"a1\t1\t_\tColumbus, OH — The city council voted",
		"a2\t0\t_\tThe mayor spoke on Tuesday.",
		"a3\t1\tmissing text column",
		"a4\t1\t_\tHOUSTON (AP) - Storms",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, cmdplaceline.Scan(strings.NewReader(input), &out, detector))
	assert.Equal(t, "a1\na4\n", out.String())
}
