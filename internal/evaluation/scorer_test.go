package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const hedgedAnswer = "These symptoms may indicate a viral infection. Published research suggests rest and fluids help. " +
	"This is not medical advice; please consult a healthcare professional."

func TestScoreHedgedMedicalAnswer(t *testing.T) {
	m := Score("Analyze these symptoms: fever", hedgedAnswer, "")

	assert.InDelta(t, 0.935, m.Relevance, 1e-9)
	assert.InDelta(t, 1.0, m.Faithfulness, 1e-9)
	assert.InDelta(t, 0.05, m.Toxicity, 1e-9)
	assert.InDelta(t, 0.05, m.Bias, 1e-9)
	assert.True(t, m.Valid())
}

func TestScoreBluntShortAnswer(t *testing.T) {
	m := Score("tell me a joke", "You have chronic pathology.", "")

	assert.InDelta(t, 0.54, m.Relevance, 1e-9)
	assert.InDelta(t, 0.65, m.Faithfulness, 1e-9)
	assert.InDelta(t, 0.2, m.Toxicity, 1e-9)
	assert.InDelta(t, 0.15, m.Bias, 1e-9)
	assert.False(t, m.Valid())
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	inputs := [][3]string{
		{"symptom check", hedgedAnswer, ""},
		{"", "", ""},
		{"medical", strings.Repeat("acute might consult study ", 50), "acute study"},
	}
	for _, in := range inputs {
		first := Score(in[0], in[1], in[2])
		assert.Equal(t, first, Score(in[0], in[1], in[2]))
		for _, v := range []float64{first.Relevance, first.Faithfulness, first.Toxicity, first.Bias} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestScoreReferenceOverlap(t *testing.T) {
	without := Score("symptom", hedgedAnswer, "")
	matching := Score("symptom", hedgedAnswer, "viral infection rest fluids")
	unrelated := Score("symptom", hedgedAnswer, "orthopedic fracture cast")

	assert.Greater(t, matching.Faithfulness, unrelated.Faithfulness)
	assert.InDelta(t, 0.8*without.Faithfulness+0.2, matching.Faithfulness, 1e-6)
	assert.InDelta(t, 0.8*without.Faithfulness, unrelated.Faithfulness, 1e-6)
}
