package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdoc "github.com/pharmawms/backend/internal/application/document"
)

func TestHTMLRenderer_PickRoute(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	expiry := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	body, contentType, err := r.Render(context.Background(), appdoc.KindPickRoute, &appdoc.PickRouteSheet{
		RouteKind:   "wave",
		RouteID:     uuid.New(),
		Number:      "OS-20250301-0001",
		GeneratedAt: time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC),
		Quantity:    40,
		Picked:      10,
		Stops: []appdoc.PickStop{
			{Sequence: 1, LocationCode: "A-01", SKU: "AMOX-500", Description: "<b>Amoxicillin</b>", Lot: "L1", ExpiresAt: &expiry, Quantity: 30, Picked: 10, Status: "in_progress"},
			{Sequence: 2, LocationCode: "B-07", SKU: "AMOX-500", Lot: "L2", Quantity: 10, Status: "short_picked"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", contentType)

	html := string(body)
	assert.Contains(t, html, "Pick Route OS-20250301-0001")
	assert.Contains(t, html, "Wave route")
	assert.Contains(t, html, "2025-03-01 09:30")
	assert.Contains(t, html, "10/40 (25%)")
	assert.Contains(t, html, "2026-03-31")
	assert.Contains(t, html, "Short Picked")
	assert.Contains(t, html, "In Progress")
	assert.Contains(t, html, "&lt;b&gt;Amoxicillin&lt;/b&gt;")
}

func TestHTMLRenderer_ConferenceSheet(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	t.Run("blind while counting", func(t *testing.T) {
		body, _, err := r.Render(context.Background(), appdoc.KindConferenceSheet, &appdoc.ConferenceSheet{
			Direction: "receiving",
			Number:    "PO-1",
			Status:    "in_progress",
			Lines:     []appdoc.ConferenceLine{{SKU: "RX-1", Lot: "LOT", Counted: 12}},
		})
		require.NoError(t, err)
		html := string(body)
		assert.Contains(t, html, "Receiving Conference PO-1")
		assert.Contains(t, html, "In Progress")
		assert.NotContains(t, html, "Divergent")
		assert.NotContains(t, html, ">OK<")
	})

	t.Run("finished shows expected", func(t *testing.T) {
		expected, ok, bad := int64(12), true, false
		short := int64(20)
		body, _, err := r.Render(context.Background(), appdoc.KindConferenceSheet, &appdoc.ConferenceSheet{
			Direction: "staging",
			Number:    "SO-9",
			Status:    "divergent",
			Forced:    true,
			Lines: []appdoc.ConferenceLine{
				{SKU: "RX-1", Lot: "A", Counted: 12, Expected: &expected, Matches: &ok},
				{SKU: "RX-2", Lot: "B", Counted: 15, Expected: &short, Matches: &bad},
			},
		})
		require.NoError(t, err)
		html := string(body)
		assert.Contains(t, html, "Staging Conference SO-9")
		assert.Contains(t, html, "(forced)")
		assert.Contains(t, html, ">OK<")
		assert.Contains(t, html, `class="mismatch"`)
		assert.Contains(t, html, ">20<")
	})
}

func TestHTMLRenderer_UnknownKind(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	_, _, err = r.Render(context.Background(), appdoc.Kind("invoice"), nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, appdoc.Kind("invoice"), renderErr.Kind)
}

func TestFuncs(t *testing.T) {
	assert.Equal(t, "Short Picked", labelText("short_picked"))
	assert.Equal(t, "0%", percent(5, 0))
	assert.Equal(t, "33.3%", percent(1, 3))
	assert.Equal(t, "", formatDate(nil))
	assert.Equal(t, "", verdict(nil))
}

func TestPDFRenderer_TemplateErrorSkipsBrowser(t *testing.T) {
	html, err := NewHTMLRenderer()
	require.NoError(t, err)
	r := NewPDFRenderer(html, PDFConfig{RenderTimeout: time.Second})
	defer r.Close()

	_, _, err = r.Render(context.Background(), appdoc.Kind("invoice"), nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, appdoc.Kind("invoice"), renderErr.Kind)
}
