package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/laudo/pkg/laudo"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []laudo.Format
		wantErr bool
	}{
		{in: "pdf", want: []laudo.Format{laudo.FormatPDF}},
		{in: "DOCX", want: []laudo.Format{laudo.FormatDOCX}},
		{in: " Both ", want: []laudo.Format{laudo.FormatPDF, laudo.FormatDOCX}},
		{in: "odt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormats(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	name := "laudo_1_2024-03-05.pdf"

	assert.Equal(t, filepath.Join(dir, name), outputPath(dir, name, 1))
	assert.Equal(t, filepath.Join(dir, name), outputPath(dir, name, 2))
	assert.Equal(t, filepath.Join(dir, "x.pdf"), outputPath(filepath.Join(dir, "x.pdf"), name, 1))
	assert.Equal(t, filepath.Join(dir, "out", name), outputPath(filepath.Join(dir, "out"), name, 1))
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "laudo.pdf")
	require.NoError(t, writeOutput(path, []byte("one"), false))

	err := writeOutput(path, []byte("two"), false)
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, writeOutput(path, []byte("two"), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
