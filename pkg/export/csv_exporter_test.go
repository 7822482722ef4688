package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderFollowsHeaderOrder(t *testing.T) {
	data := Dataset{
		Headers: []string{"Day", "Start", "Course"},
		Rows: []map[string]string{
			{"Course": "c1", "Day": "Monday", "Start": "08:00"},
			{"Day": "Tuesday", "Course": "c2"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,Course", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Monday,08:00,c1", strings.TrimSpace(lines[1]))
	// Missing columns render empty, not shifted.
	assert.Equal(t, "Tuesday,,c2", strings.TrimSpace(lines[2]))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
