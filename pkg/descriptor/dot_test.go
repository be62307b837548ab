package descriptor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory/pkg/zones"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)

	f, err = ParseFormat(" Mermaid ")
	require.NoError(t, err)
	assert.Equal(t, FormatMermaid, f)

	_, err = ParseFormat("svg")
	assert.Error(t, err)
}

func TestWriteDOT(t *testing.T) {
	site, err := Build(context.Background(), exampleConfig(), zones.Static("Z1", "example.com"))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, site.WriteDOT(&sb, FormatDOT))
	out := sb.String()

	assert.Contains(t, out, "digraph")
	for _, id := range []string{IDBucket, IDHostedZone, IDCertificate, IDDistribution, IDCnameRecord} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "www.example.com")
}

func TestWriteDOT_Mermaid(t *testing.T) {
	site, err := Build(context.Background(), exampleConfig(), zones.Static("Z1", "example.com"))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, site.WriteDOT(&sb, FormatMermaid))
	out := sb.String()
	assert.True(t, strings.Contains(out, "flowchart") || strings.Contains(out, "graph"), out)
	assert.Contains(t, out, IDDistribution)
	assert.Error(t, site.WriteDOT(&sb, Format("png")))
}
