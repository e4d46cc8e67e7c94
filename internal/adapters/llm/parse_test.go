package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("Here is the JSON you asked for: {\"a\":1}. Let me know!"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("  {\"a\":1}  "))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"Нефть и газ", "Финансы"}, parseTags("Нефть и газ, Финансы"))
	assert.Equal(t, []string{"Транспорт"}, parseTags("Транспорт\n"))
	assert.Empty(t, parseTags("  \n "))
}

func TestParseImpact(t *testing.T) {
	impact, err := parseImpact("```json\n{\"impact_level\":\"high\",\"affected_sectors\":[\"Нефть и газ\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "high", impact.Level)
	assert.Equal(t, []string{"Нефть и газ"}, impact.AffectedSectors)

	impact, err = parseImpact(`{"affected_sectors":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "unknown", impact.Level, "missing level defaults to unknown")

	_, err = parseImpact("the model refused to answer")
	assert.Error(t, err)
}

func TestParseSameEvent(t *testing.T) {
	assert.True(t, parseSameEvent("true"))
	assert.True(t, parseSameEvent("True."))
	assert.True(t, parseSameEvent(`"TRUE"`))
	assert.False(t, parseSameEvent("false"))
	assert.False(t, parseSameEvent("these are unrelated events"))
}
