package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidekit/aide/internal/models"
)

func TestParseEmptyMessage(t *testing.T) {
	_, err := Parse("")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Parse("   \t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestParseSingleWordVariable(t *testing.T) {
	cmd, err := Parse(".alert 10m check tasks now")
	require.NoError(t, err)

	assert.Equal(t, models.VarAlert, cmd.Variable)
	assert.Equal(t, "10m", cmd.Value)
	assert.Equal(t, "check tasks now", cmd.CleanMessage)
	assert.Empty(t, cmd.Flags)
}

func TestParseMultiWordValueWithFlag(t *testing.T) {
	cmd, err := Parse(".task prepare deck -description finalize slides")
	require.NoError(t, err)

	assert.Equal(t, models.VarTask, cmd.Variable)
	assert.Equal(t, "prepare deck", cmd.Value)
	assert.Equal(t, "finalize slides", cmd.Flags["description"])
	assert.Empty(t, cmd.CleanMessage)
}

func TestParseUnknownFlagIsDropped(t *testing.T) {
	cmd, err := Parse(".task prepare deck -bogus noise words -description finalize slides")
	require.NoError(t, err)

	assert.Equal(t, "prepare deck", cmd.Value)
	assert.NotContains(t, cmd.Flags, "bogus")
	assert.Equal(t, "finalize slides", cmd.Flags["description"])
	assert.Empty(t, cmd.CleanMessage)
}

func TestParseAliases(t *testing.T) {
	cases := []struct {
		message string
		want    models.Variable
	}{
		{".a 5m tea", models.VarAlert},
		{".t buy milk", models.VarTask},
		{".n remember this", models.VarNote},
		{".i a red cat", models.VarImage},
		{".q what is up", models.VarQuestion},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.message)
		require.NoError(t, err, tc.message)
		assert.Equal(t, tc.want, cmd.Variable, tc.message)
	}
}

func TestParseDefaultValueVariable(t *testing.T) {
	cmd, err := Parse(".question how do tides work")
	require.NoError(t, err)

	assert.Equal(t, models.VarQuestion, cmd.Variable)
	assert.Equal(t, "ask", cmd.Value)
	assert.Equal(t, "how do tides work", cmd.CleanMessage)
}

func TestParseUnknownVariableWordStaysClean(t *testing.T) {
	cmd, err := Parse(".frobnicate hello there")
	require.NoError(t, err)

	assert.Equal(t, models.VarNone, cmd.Variable)
	assert.Empty(t, cmd.Value)
	assert.Equal(t, ".frobnicate hello there", cmd.CleanMessage)
}

func TestParseNoVariable(t *testing.T) {
	cmd, err := Parse("just a plain sentence")
	require.NoError(t, err)

	assert.Equal(t, models.VarNone, cmd.Variable)
	assert.Equal(t, "just a plain sentence", cmd.CleanMessage)
}

func TestParseFlagValueStopsAtNextFlag(t *testing.T) {
	cmd, err := Parse(".task ship release -description cut the tag -due tomorrow morning")
	require.NoError(t, err)

	assert.Equal(t, "ship release", cmd.Value)
	assert.Equal(t, "cut the tag", cmd.Flags["description"])
	assert.Equal(t, "tomorrow morning", cmd.Flags["due"])
}

func TestParseFlagWithoutValue(t *testing.T) {
	cmd, err := Parse(".note remember -tag")
	require.NoError(t, err)

	assert.Equal(t, "remember", cmd.Value)
	val, ok := cmd.Flags["tag"]
	assert.True(t, ok)
	assert.Empty(t, val)
}

func TestParseSingleWordThenClean(t *testing.T) {
	cmd, err := Parse(".alert 14:30 standup with the platform team")
	require.NoError(t, err)

	assert.Equal(t, "14:30", cmd.Value)
	assert.Equal(t, "standup with the platform team", cmd.CleanMessage)
}
