package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	require.NoError(t, Load())
}

func TestFleet(t *testing.T) {
	f := Fleet()
	assert.Equal(t, "Istanbul Airport (IST)", f.Hub)
	assert.Len(t, f.Aircraft, 11)
	assert.Len(t, f.Orders, 5)
	assert.Equal(t, 516, f.Total())

	byType := f.CountByType()
	assert.Equal(t, 347, byType["Narrow-body"])
	assert.Equal(t, 142, byType["Wide-body"])
	assert.Equal(t, 27, byType["Freighter"])
}

func TestFleetSummary(t *testing.T) {
	s := FleetSummary()
	assert.Contains(t, s, "- Total Fleet: 516 aircraft")
	assert.Contains(t, s, "- Wide-body: 142 (")
	assert.Contains(t, s, "Airbus A350-900: 33")
	assert.Contains(t, s, "- Cargo: 27 freighters")
	assert.True(t, strings.HasSuffix(s, "- Hub: Istanbul Airport (IST)\n"))
}

func TestDestinations(t *testing.T) {
	d := Destinations()
	assert.Equal(t, 356, d.Summary.TotalDestinations)
	assert.Equal(t, d.Summary.TotalDestinations, d.Summary.Domestic+d.Summary.International)
	assert.Len(t, d.Countries, 103)

	var total int
	for _, countries := range d.ByRegion() {
		total += len(countries)
	}
	assert.Equal(t, len(d.Countries), total)
	assert.Equal(t, "Turkey", d.ByRegion()["Europe"][0].Country)

	s := DestinationsSummary()
	assert.Contains(t, s, "- Total Destinations: 356 (53 domestic, 303 international)")
	assert.Contains(t, s, "- Star Alliance member since 2008")
}

func TestDictionary(t *testing.T) {
	terms := Terms()
	require.Len(t, terms, 313)
	assert.Equal(t, "ATC", terms[0])

	seen := make(map[string]bool)
	for _, e := range Dictionary() {
		assert.NotEmpty(t, e.Definition, e.Term)
		assert.False(t, seen[e.Term], "duplicate term %s", e.Term)
		seen[e.Term] = true
	}
}

func TestTimeline(t *testing.T) {
	events := Timeline()
	require.Len(t, events, 41)
	assert.Equal(t, 1783, events[0].Year)

	years := Years()
	require.NotEmpty(t, years)
	for i := 1; i < len(years); i++ {
		assert.Less(t, years[i-1], years[i])
	}
	assert.Contains(t, years, 1903)
}

func TestNews(t *testing.T) {
	items := News()
	require.Len(t, items, 10)
	assert.Equal(t, "2025", items[0].Date)
	assert.Equal(t, []string{"Boeing", "Safety", "Regulatory"}, items[0].Category)
}

func TestFuture(t *testing.T) {
	assert.Len(t, FutureTopics(), 9)
	assert.Contains(t, FutureTopics(), "Space Tourism")

	f := Future()
	assert.Len(t, f.Trends, 14)
	for _, tr := range f.Trends {
		assert.Contains(t, []string{"Sustainability", "Technology", "Aircraft", "Operations"}, tr.Category, tr.Title)
	}
}

func TestAircraft(t *testing.T) {
	assert.Equal(t, []string{"c172", "da40", "da42"}, AircraftIDs())

	tests := []struct {
		id      string
		engines int
		vne     string
	}{
		{"c172", 1, "163 KIAS"},
		{"da40", 1, "178 KIAS"},
		{"DA42", 2, "223 KIAS"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a, err := Aircraft(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.engines, a.Engines)
			vne, ok := a.VSpeed("vne")
			require.True(t, ok)
			assert.Equal(t, tt.vne, vne)
		})
	}

	_, err := Aircraft("a380")
	assert.ErrorIs(t, err, ErrUnknownAircraft)
}

func TestAircraftText(t *testing.T) {
	a, err := Aircraft("da42")
	require.NoError(t, err)
	text := a.Text()
	assert.True(t, strings.HasPrefix(text, "Diamond DA42 NG\n"))
	assert.Contains(t, text, "- VMC (Min Control Speed): 68 KIAS")
	assert.Contains(t, text, "Single-Engine Ceiling: 10,000 ft")
}

func TestDataset(t *testing.T) {
	for _, name := range Datasets() {
		v, err := Dataset(name)
		require.NoError(t, err, name)
		assert.NotNil(t, v, name)
	}
	_, err := Dataset("weather")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}
