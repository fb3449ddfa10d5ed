package evaluation

import (
	"math"
	"regexp"
	"strings"
)

// Metrics rates a generated response. Every value is within [0,1].
type Metrics struct {
	Relevance    float64 `json:"relevance"`
	Faithfulness float64 `json:"faithfulness"`
	Toxicity     float64 `json:"toxicity"`
	Bias         float64 `json:"bias"`
}

// Valid mirrors the acceptance rule used by the mobile client.
func (m Metrics) Valid() bool {
	return m.Relevance > 0.7 && m.Faithfulness > 0.8
}

var (
	medicalContext = regexp.MustCompile(`(?i)symptom|diagnosis|medical|health|treatment|condition`)
	disclaimer     = regexp.MustCompile(`(?i)consult|professional|not medical advice|disclaimer`)
	citation       = regexp.MustCompile(`(?i)study|research|evidence|journal|published`)
	hedging        = regexp.MustCompile(`(?i)may|might|could|possibly|potentially|suggests`)
	jargon         = regexp.MustCompile(`(?i)acute|chronic|pathology|etiology|contraindication|differential`)
	wordPattern    = regexp.MustCompile(`[a-z0-9]+`)
)

// Score rates response against the prompt that produced it. An optional
// reference text moves faithfulness toward the word overlap with it.
// The heuristic is deterministic and makes no external calls.
func Score(prompt, response, reference string) Metrics {
	relevance := 0.6
	if len(response) > 100 {
		relevance = 0.85
	}
	if medicalContext.MatchString(prompt) {
		relevance *= 1.1
	} else {
		relevance *= 0.9
	}

	hedged := hedging.MatchString(response)
	faithfulness := 0.75
	if disclaimer.MatchString(response) {
		faithfulness += 0.1
	}
	if citation.MatchString(response) {
		faithfulness += 0.1
	}
	if hedged {
		faithfulness += 0.05
	} else {
		faithfulness -= 0.1
	}
	if reference != "" {
		faithfulness = 0.8*faithfulness + 0.2*overlap(response, reference)
	}

	toxicity := 0.05
	if jargon.MatchString(response) {
		toxicity = 0.2
	}
	bias := 0.15
	if hedged {
		bias -= 0.1
	}

	return Metrics{
		Relevance:    clamp(relevance),
		Faithfulness: clamp(faithfulness),
		Toxicity:     clamp(toxicity),
		Bias:         clamp(bias),
	}
}

// overlap is the share of distinct reference words found in response.
func overlap(response, reference string) float64 {
	ref := words(reference)
	if len(ref) == 0 {
		return 0
	}
	resp := words(response)
	hits := 0
	for w := range ref {
		if _, ok := resp[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(ref))
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		out[w] = struct{}{}
	}
	return out
}

func clamp(v float64) float64 {
	return math.Round(math.Max(0, math.Min(1, v))*1e6) / 1e6
}
