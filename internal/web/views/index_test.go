package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	err := Index(IndexProps{
		MaxFileSize: 100 << 20,
		MaxFiles:    20,
		Functions:   []string{"Sum", "Standard Deviation"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "Up to 20 files of 100 MB each.")
	assert.Contains(t, out, `data-endpoint="/api/append"`)
	assert.Contains(t, out, `data-endpoint="/api/summarize"`)
	assert.Contains(t, out, `data-endpoint="/api/reconcile"`)
	assert.Contains(t, out, `<option value="Standard Deviation">Standard Deviation</option>`)
}

func TestLayoutEscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Layout("<b>x</b>").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<title>&lt;b&gt;x&lt;/b&gt;</title>")
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "5 MB", humanSize(5<<20))
	assert.Equal(t, "1500 bytes", humanSize(1500))
}
