package charts

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdash/pkg/contracts/domain"
)

func summary() domain.Summary {
	return domain.Summary{
		Total:              5,
		ByResolutionStatus: map[string]int{"Within SLA": 3, "SLA Violated": 2},
		ByTypeAndShift: map[string]map[string]int{
			"Bug (Tech)":      {"Within Shift": 2, "After Shift": 1},
			"Config & Master": {"After Shift": 1},
			"":                {"": 1},
		},
		ByPriority:     map[string]int{"P1": 1, "P4": 4},
		ByTicketType:   map[string]int{"Bug (Tech)": 3, "Config & Master": 1, "": 1},
		ByCreatedMonth: map[string]int{"2024-01": 5},
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(Options{Width: 640, Height: 320}, nil)

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, kind, summary()))

			cfg, err := png.DecodeConfig(&buf)
			require.NoError(t, err)
			assert.Equal(t, 640, cfg.Width)
			assert.Equal(t, 320, cfg.Height)
		})
	}
}

func TestRenderer_SingleBar(t *testing.T) {
	var buf bytes.Buffer
	s := domain.Summary{ByPriority: map[string]int{"P1": 1}}
	require.NoError(t, NewRenderer(Options{}, nil).Render(&buf, KindPriority, s))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderer_NoData(t *testing.T) {
	r := NewRenderer(Options{}, nil)
	for _, kind := range Kinds() {
		var buf bytes.Buffer
		err := r.Render(&buf, kind, domain.Summary{})
		assert.ErrorIs(t, err, ErrNoData, kind)
		assert.Zero(t, buf.Len())
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("type-shift")
	require.NoError(t, err)
	assert.Equal(t, KindTypeShift, k)
	assert.Equal(t, "Ticket Type by Shift", k.Title())

	_, err = ParseKind("radar")
	assert.ErrorIs(t, err, ErrUnknownKind)

	var buf bytes.Buffer
	assert.ErrorIs(t, NewRenderer(Options{}, nil).Render(&buf, Kind("radar"), summary()), ErrUnknownKind)
}

func TestAxisMax(t *testing.T) {
	assert.Equal(t, 2.0, axisMax(1))
	assert.Equal(t, 12.0, axisMax(10))
}

func TestHasData(t *testing.T) {
	for _, kind := range Kinds() {
		assert.True(t, HasData(kind, summary()), kind)
		assert.False(t, HasData(kind, domain.Summary{}), kind)
	}
	assert.False(t, HasData(Kind("pie"), summary()))
}
