package refdata

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrUnknownDataset is returned by Dataset for names outside Datasets().
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrUnknownAircraft is returned by Aircraft for ids outside AircraftIDs().
var ErrUnknownAircraft = errors.New("unknown aircraft")

// FleetAircraft is one row of the airline fleet table.
type FleetAircraft struct {
	Manufacturer string `yaml:"manufacturer" json:"manufacturer"`
	Model        string `yaml:"model" json:"model"`
	Type         string `yaml:"type" json:"type"`
	Count        int    `yaml:"count" json:"count"`
	Passengers   string `yaml:"passengers" json:"passengers"`
	RangeKM      int    `yaml:"range_km" json:"range_km"`
}

// FleetOrder is an outstanding aircraft order.
type FleetOrder struct {
	Aircraft         string `yaml:"aircraft" json:"aircraft"`
	OnOrder          int    `yaml:"on_order" json:"on_order"`
	ExpectedDelivery string `yaml:"expected_delivery" json:"expected_delivery"`
	Notes            string `yaml:"notes" json:"notes"`
}

// FleetData is the fleet page dataset.
type FleetData struct {
	Hub             string          `yaml:"hub" json:"hub"`
	Source          string          `yaml:"source" json:"source"`
	AsOf            string          `yaml:"as_of" json:"as_of"`
	Aircraft        []FleetAircraft `yaml:"aircraft" json:"aircraft"`
	Orders          []FleetOrder    `yaml:"orders" json:"orders"`
	InterviewPoints []string        `yaml:"interview_points" json:"interview_points"`
}

// Total returns the number of aircraft in service.
func (f FleetData) Total() int {
	var n int
	for _, a := range f.Aircraft {
		n += a.Count
	}
	return n
}

// CountByType sums aircraft counts per body type.
func (f FleetData) CountByType() map[string]int {
	out := make(map[string]int)
	for _, a := range f.Aircraft {
		out[a.Type] += a.Count
	}
	return out
}

// NetworkSummary holds the headline figures of the route network.
type NetworkSummary struct {
	TotalDestinations int      `yaml:"total_destinations" json:"total_destinations"`
	Domestic          int      `yaml:"domestic" json:"domestic"`
	International     int      `yaml:"international" json:"international"`
	Countries         int      `yaml:"countries" json:"countries"`
	Hub               string   `yaml:"hub" json:"hub"`
	Alliance          string   `yaml:"alliance" json:"alliance"`
	AllianceSince     int      `yaml:"alliance_since" json:"alliance_since"`
	KeyMarkets        []string `yaml:"key_markets" json:"key_markets"`
}

// Country is one country served by the network.
type Country struct {
	Country       string `yaml:"country" json:"country"`
	ISO           string `yaml:"iso" json:"iso"`
	Region        string `yaml:"region" json:"region"`
	Destinations  int    `yaml:"destinations" json:"destinations"`
	WeeklyFlights int    `yaml:"weekly_flights" json:"weekly_flights"`
}

// DestinationsData is the destinations page dataset.
type DestinationsData struct {
	Summary   NetworkSummary `yaml:"summary" json:"summary"`
	Facts     []string       `yaml:"facts" json:"facts"`
	Countries []Country      `yaml:"countries" json:"countries"`
}

// ByRegion groups countries by region, keeping file order within a region.
func (d DestinationsData) ByRegion() map[string][]Country {
	out := make(map[string][]Country)
	for _, c := range d.Countries {
		out[c.Region] = append(out[c.Region], c)
	}
	return out
}

// Term is a dictionary entry.
type Term struct {
	Term       string `yaml:"term" json:"term"`
	FullName   string `yaml:"full_name" json:"full_name"`
	Category   string `yaml:"category" json:"category"`
	Difficulty string `yaml:"difficulty" json:"difficulty"`
	Definition string `yaml:"definition" json:"definition"`
}

// Event is a history timeline entry.
type Event struct {
	Year    int    `yaml:"year" json:"year"`
	Era     string `yaml:"era" json:"era"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// NewsItem is a curated news story.
type NewsItem struct {
	Title        string   `yaml:"title" json:"title"`
	Date         string   `yaml:"date" json:"date"`
	Category     []string `yaml:"category" json:"category"`
	Content      string   `yaml:"content" json:"content"`
	InterviewTip string   `yaml:"interview_tip" json:"interview_tip"`
}

// Trend is a future-of-aviation topic.
type Trend struct {
	Title        string `yaml:"title" json:"title"`
	Timeline     string `yaml:"timeline" json:"timeline"`
	Category     string `yaml:"category" json:"category"`
	Content      string `yaml:"content" json:"content"`
	InterviewTip string `yaml:"interview_tip" json:"interview_tip"`
}

// FutureData is the future-of-aviation page dataset.
type FutureData struct {
	CoveredTopics   []string `yaml:"covered_topics" json:"covered_topics"`
	Trends          []Trend  `yaml:"trends" json:"trends"`
	InterviewPoints []string `yaml:"interview_points" json:"interview_points"`
}

// Spec is one labelled aircraft specification.
type Spec struct {
	Group string `yaml:"group" json:"group"`
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// VSpeed is a reference speed.
type VSpeed struct {
	Name    string `yaml:"name" json:"name"`
	Meaning string `yaml:"meaning" json:"meaning"`
	Value   string `yaml:"value" json:"value"`
}

// TrainingAircraft describes an aircraft used in the cadet programme.
type TrainingAircraft struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Manufacturer   string   `yaml:"manufacturer" json:"manufacturer"`
	FirstFlight    string   `yaml:"first_flight" json:"first_flight"`
	Type           string   `yaml:"type" json:"type"`
	Role           string   `yaml:"role" json:"role"`
	Engines        int      `yaml:"engines" json:"engines"`
	Engine         string   `yaml:"engine" json:"engine"`
	Power          string   `yaml:"power" json:"power"`
	Propeller      string   `yaml:"propeller" json:"propeller"`
	Fuel           string   `yaml:"fuel" json:"fuel"`
	Avionics       string   `yaml:"avionics" json:"avionics"`
	Specs          []Spec   `yaml:"specs" json:"specs"`
	VSpeeds        []VSpeed `yaml:"v_speeds" json:"v_speeds"`
	TrainingPoints []string `yaml:"training_points" json:"training_points"`
}

// VSpeed returns the value of the named reference speed.
func (a TrainingAircraft) VSpeed(name string) (string, bool) {
	for _, v := range a.VSpeeds {
		if strings.EqualFold(v.Name, name) {
			return v.Value, true
		}
	}
	return "", false
}

// Text renders the aircraft as plain text, the form used as generation
// context.
func (a TrainingAircraft) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", a.Name)
	fmt.Fprintf(&b, "Manufacturer: %s\nType: %s\nRole: %s\n", a.Manufacturer, a.Type, a.Role)
	fmt.Fprintf(&b, "Engine: %s, %s\nPropeller: %s\nFuel: %s\nAvionics: %s\n",
		a.Engine, a.Power, a.Propeller, a.Fuel, a.Avionics)
	for _, s := range a.Specs {
		fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Value)
	}
	b.WriteString("V-speeds:\n")
	for _, v := range a.VSpeeds {
		fmt.Fprintf(&b, "- %s (%s): %s\n", v.Name, v.Meaning, v.Value)
	}
	if len(a.TrainingPoints) > 0 {
		b.WriteString("Training points:\n")
		for _, p := range a.TrainingPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String()
}

type dataset struct {
	fleet        FleetData
	destinations DestinationsData
	dictionary   struct {
		Terms []Term `yaml:"terms"`
	}
	history struct {
		Events []Event `yaml:"events"`
	}
	news struct {
		Items []NewsItem `yaml:"items"`
	}
	future   FutureData
	aircraft struct {
		Aircraft []TrainingAircraft `yaml:"aircraft"`
	}
}

var (
	loadOnce sync.Once
	loaded   *dataset
	loadErr  error
)

// Load parses the embedded datasets. It is called implicitly by every
// accessor; calling it directly surfaces a parse error instead of a panic.
func Load() error {
	loadOnce.Do(func() {
		d := &dataset{}
		files := []struct {
			name string
			dst  any
		}{
			{"fleet.yaml", &d.fleet},
			{"destinations.yaml", &d.destinations},
			{"dictionary.yaml", &d.dictionary},
			{"history.yaml", &d.history},
			{"news.yaml", &d.news},
			{"future.yaml", &d.future},
			{"aircraft.yaml", &d.aircraft},
		}
		for _, f := range files {
			raw, err := dataFS.ReadFile("data/" + f.name)
			if err != nil {
				loadErr = err
				return
			}
			if err := yaml.Unmarshal(raw, f.dst); err != nil {
				loadErr = fmt.Errorf("parsing %s: %w", f.name, err)
				return
			}
		}
		loaded = d
	})
	return loadErr
}

func data() *dataset {
	if err := Load(); err != nil {
		panic("refdata: " + err.Error())
	}
	return loaded
}

// Fleet returns the fleet table.
func Fleet() FleetData { return data().fleet }

// FleetSummary renders headline fleet figures grouped by body type.
func FleetSummary() string {
	f := data().fleet
	byType := f.CountByType()

	group := func(typ string) string {
		var parts []string
		for _, a := range f.Aircraft {
			if a.Type == typ {
				parts = append(parts, fmt.Sprintf("%s %s: %d", a.Manufacturer, a.Model, a.Count))
			}
		}
		return strings.Join(parts, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Total Fleet: %d aircraft\n", f.Total())
	fmt.Fprintf(&b, "- Wide-body: %d (%s)\n", byType["Wide-body"], group("Wide-body"))
	fmt.Fprintf(&b, "- Narrow-body: %d (%s)\n", byType["Narrow-body"], group("Narrow-body"))
	fmt.Fprintf(&b, "- Cargo: %d freighters (%s)\n", byType["Freighter"], group("Freighter"))
	fmt.Fprintf(&b, "- Hub: %s\n", f.Hub)
	return b.String()
}

// Destinations returns the route network dataset.
func Destinations() DestinationsData { return data().destinations }

// DestinationsSummary renders headline network figures.
func DestinationsSummary() string {
	d := data().destinations
	s := d.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "- Total Destinations: %d (%d domestic, %d international)\n",
		s.TotalDestinations, s.Domestic, s.International)
	fmt.Fprintf(&b, "- Countries Served: %d countries\n", s.Countries)
	fmt.Fprintf(&b, "- Hub: %s\n", s.Hub)
	fmt.Fprintf(&b, "- Key Markets: %s\n", strings.Join(s.KeyMarkets, ", "))
	fmt.Fprintf(&b, "- %s member since %d\n", s.Alliance, s.AllianceSince)
	for _, f := range d.Facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

// Dictionary returns every dictionary entry.
func Dictionary() []Term { return data().dictionary.Terms }

// Terms returns the dictionary's term names in file order.
func Terms() []string {
	entries := data().dictionary.Terms
	out := make([]string, len(entries))
	for i, t := range entries {
		out[i] = t.Term
	}
	return out
}

// Timeline returns the history events in chronological order.
func Timeline() []Event { return data().history.Events }

// Years returns the distinct years covered by the timeline, ascending.
func Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, e := range data().history.Events {
		if !seen[e.Year] {
			seen[e.Year] = true
			years = append(years, e.Year)
		}
	}
	sort.Ints(years)
	return years
}

// News returns the curated news items.
func News() []NewsItem { return data().news.Items }

// Future returns the future-of-aviation dataset.
func Future() FutureData { return data().future }

// FutureTopics returns the topic names already covered on the future page.
func FutureTopics() []string { return data().future.CoveredTopics }

// AircraftIDs returns the training aircraft ids in programme order.
func AircraftIDs() []string {
	list := data().aircraft.Aircraft
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

// Aircraft returns the training aircraft with the given id.
func Aircraft(id string) (TrainingAircraft, error) {
	for _, a := range data().aircraft.Aircraft {
		if strings.EqualFold(a.ID, id) {
			return a, nil
		}
	}
	return TrainingAircraft{}, fmt.Errorf("%w: %q", ErrUnknownAircraft, id)
}

var datasets = []string{"fleet", "destinations", "dictionary", "history", "news", "future", "aircraft"}

// Datasets returns the names accepted by Dataset.
func Datasets() []string {
	out := make([]string, len(datasets))
	copy(out, datasets)
	return out
}

// Dataset returns the named dataset in a form suitable for encoding.
func Dataset(name string) (any, error) {
	switch name {
	case "fleet":
		return Fleet(), nil
	case "destinations":
		return Destinations(), nil
	case "dictionary":
		return Dictionary(), nil
	case "history":
		return Timeline(), nil
	case "news":
		return News(), nil
	case "future":
		return Future(), nil
	case "aircraft":
		return data().aircraft.Aircraft, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}
