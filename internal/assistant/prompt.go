package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/cadetprep/internal/refdata"
	"github.com/dshills/cadetprep/internal/topics"
)

// Number of existing dictionary terms listed in the dictionary context.
const dictionaryContextTerms = 50

// Known aircraft content is cut to this many characters in the tips context.
const tipsContextChars = 1000

const jsonOnly = "\n\nReturn ONLY the JSON array, no other text."

const dictionaryPrompt = `Return your response as a valid JSON array with this exact format:
[
  {
    "term": "TERM_OR_ABBREVIATION",
    "full_name": "Full Name or Description",
    "category": "One of: Aerodynamics, Navigation, Meteorology, Aircraft Systems, Regulations, Communications, Instruments, Emergencies, Human Factors, Flight Operations, Airport, ATC, V-Speeds",
    "difficulty": "One of: Basic, Intermediate, Advanced",
    "definition": "Clear definition of the term (1-2 sentences)"
  }
]` + jsonOnly

const newsContext = `You are an aviation industry analyst helping a Turkish Airlines cadet pilot candidate
prepare for their interview scheduled for March/April 2026.`

const newsPrompt = `Provide 5-7 recent and important aviation news items that would be relevant for a pilot interview.
Focus on: industry trends, safety developments, Turkish Airlines news, technology advances, and significant incidents.

Return your response as a valid JSON array with this exact format:
[
  {
    "title": "News headline",
    "date": "2025 or 2026",
    "category": ["Category1", "Category2"],
    "content": "Brief summary of the news (2-3 sentences)",
    "interview_tip": "How this might come up in an interview (1 sentence)"
  }
]` + jsonOnly

const historyPrompt = `Suggest 10 additional important aviation historical events that are NOT in the years listed.
Include events from early aviation to modern times.

Return your response as a valid JSON array with this exact format:
[
  {
    "year": 1950,
    "era": "One of: Pioneers, Early Aviation, Golden Age, World War II, Jet Age, Modern Era",
    "title": "Event Title",
    "content": "Description of the event and its significance (2-3 sentences)"
  }
]` + jsonOnly

const fleetPrompt = `Provide 5-7 interesting insights about Turkish Airlines' fleet that would be useful for a pilot interview.
Include facts about fleet strategy, aircraft capabilities, operational efficiency, and comparisons.

Return your response as a valid JSON array with this exact format:
[
  {
    "title": "Insight Title",
    "category": "One of: Fleet Strategy, Aircraft Specs, Operations, Efficiency, Industry Comparison",
    "content": "Detailed insight (2-3 sentences)",
    "interview_tip": "How this might be relevant in an interview (1 sentence)"
  }
]` + jsonOnly

const destinationsPrompt = `Provide 5-7 interesting insights about Turkish Airlines' route network that would be useful for a pilot interview.
Include facts about hub strategy, key markets, growth areas, and competitive positioning.

Return your response as a valid JSON array with this exact format:
[
  {
    "title": "Insight Title",
    "category": "One of: Hub Strategy, Key Markets, Growth, Competition, Geography",
    "content": "Detailed insight (2-3 sentences)",
    "interview_tip": "How this might be relevant in an interview (1 sentence)"
  }
]` + jsonOnly

const futurePrompt = `Suggest 5 additional emerging technologies or trends in aviation that are NOT already covered.
Focus on developments that would be relevant for a pilot candidate to know about.

Return your response as a valid JSON array with this exact format:
[
  {
    "title": "Technology or Trend Name",
    "timeline": "Expected timeline (e.g., 2025-2030)",
    "category": "One of: Sustainability, Technology, Aircraft, Operations",
    "content": "Description of the technology/trend and its impact (3-4 sentences)",
    "interview_tip": "Why this is relevant for an interview (1 sentence)"
  }
]` + jsonOnly

// Prompt is the text sent for one topic. Context is sent ahead of Prompt
// and both take part in the cache key.
type Prompt struct {
	Prompt  string
	Context string
}

// BuildPrompt returns the prompt for topic. aircraft selects the training
// aircraft and is ignored for every other topic.
func BuildPrompt(topic, aircraft string) (Prompt, error) {
	switch topic {
	case topics.Dictionary:
		return Prompt{Prompt: dictionaryPrompt, Context: DictionaryContext(refdata.Terms())}, nil
	case topics.News:
		return Prompt{Prompt: newsPrompt, Context: newsContext}, nil
	case topics.History:
		return Prompt{Prompt: historyPrompt, Context: HistoryContext(refdata.Years())}, nil
	case topics.Fleet:
		return Prompt{
			Prompt:  fleetPrompt,
			Context: "You are an aviation expert helping a Turkish Airlines cadet pilot candidate.\n\nCurrent THY Fleet Summary:\n" + refdata.FleetSummary(),
		}, nil
	case topics.Destinations:
		return Prompt{
			Prompt:  destinationsPrompt,
			Context: "You are an aviation expert helping a Turkish Airlines cadet pilot candidate.\n\nCurrent THY Network Summary:\n" + refdata.DestinationsSummary(),
		}, nil
	case topics.Future:
		return Prompt{Prompt: futurePrompt, Context: FutureContext(refdata.FutureTopics())}, nil
	case topics.TrainingAircraft:
		a, err := refdata.Aircraft(aircraft)
		if err != nil {
			return Prompt{}, err
		}
		return TipsPrompt(a.Name, a.Text()), nil
	}
	return Prompt{}, fmt.Errorf("%w: %q", topics.ErrUnknownTopic, topic)
}

// DictionaryContext lists the first terms already in the dictionary and how
// many more there are.
func DictionaryContext(terms []string) string {
	shown := terms
	if len(shown) > dictionaryContextTerms {
		shown = shown[:dictionaryContextTerms]
	}
	list := strings.Join(shown, ", ")
	if rest := len(terms) - len(shown); rest > 0 {
		list += fmt.Sprintf("... (and %d more)", rest)
	}
	return `You are an aviation expert helping a pilot candidate prepare for their Turkish Airlines interview.

The following aviation terms/abbreviations are already in the dictionary:
` + list + `

Please suggest 15-20 ADDITIONAL important aviation terms that are NOT in the list above.
Focus on terms that would be relevant for a cadet pilot interview.`
}

// HistoryContext lists the years the timeline already covers.
func HistoryContext(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return "You are an aviation historian helping a pilot candidate learn aviation history.\n\n" +
		"The following years already have events covered:\n" + strings.Join(parts, ", ")
}

// FutureContext lists the future-of-aviation topics already covered.
func FutureContext(covered []string) string {
	return "You are an aviation technology analyst providing insights about the future of aviation.\n\n" +
		"Topics already covered include:\n" + strings.Join(covered, ", ")
}

// TipsPrompt asks for interview tips about one aircraft. known is cut to its
// first 1000 characters.
func TipsPrompt(aircraft, known string) Prompt {
	if r := []rune(known); len(r) > tipsContextChars {
		known = string(r[:tipsContextChars])
	}
	return Prompt{
		Context: fmt.Sprintf("You are a flight instructor helping a student prepare for their interview about the %s.\n\n"+
			"The student already knows about:\n%s...", aircraft, known),
		Prompt: fmt.Sprintf("Provide 3-5 additional interview tips or key points about the %s that would help\n"+
			"a cadet pilot candidate. Focus on things an interviewer might ask about.\n\n"+
			"Format your response as a bullet-point list that can be displayed directly. Keep it concise.", aircraft),
	}
}

func repairPrompt(topic string, cause error, previous string) string {
	return fmt.Sprintf(
		"Your previous response was not valid JSON for %s. The error was: %s\n\n"+
			"Please fix it and respond with ONLY a valid JSON array in the requested format.\n\n"+
			"Your previous response was:\n%s",
		topic, cause.Error(), previous,
	)
}
