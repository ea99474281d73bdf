package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Date", "Start", "Minutes"},
		Rows: []map[string]string{
			{"Date": "2026-03-02", "Start": "18:00", "Minutes": "60"},
			{"Date": "2026-03-09", "Start": "18:00", "Minutes": "18"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Date,Start,Minutes\n2026-03-02,18:00,60\n2026-03-09,18:00,18\n"
	assert.Equal(t, expected, string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterFillsMissingCells(t *testing.T) {
	data := Dataset{
		Headers: []string{"Date", "Title"},
		Rows:    []map[string]string{{"Date": "2026-03-02"}},
	}
	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Date,Title\n2026-03-02,\n", string(payload))
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Exam prep")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
