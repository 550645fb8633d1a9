package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "water the plants", escapeMarkdown("water the plants"))
	assert.Equal(t, "Alert set for 12:10 to water\\.", escapeMarkdown("Alert set for 12:10 to water."))
	assert.Equal(t, "\\*bold\\* \\_italic\\_ \\[link\\]\\(x\\)", escapeMarkdown("*bold* _italic_ [link](x)"))
	// backslashes in the input must not double-escape the following char
	assert.Equal(t, "a\\\\\\.b", escapeMarkdown("a\\.b"))
}
