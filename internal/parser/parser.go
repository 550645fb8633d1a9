package parser

import (
	"errors"
	"strings"

	"github.com/aidekit/aide/internal/models"
)

// ErrEmptyMessage is returned when there is nothing to parse.
var ErrEmptyMessage = errors.New("empty message")

const (
	variablePrefix = "."
	flagPrefix     = "-"
)

// varSpec configures how a variable consumes the tokens that follow it.
type varSpec struct {
	// singleWord limits the value to the one token after the variable.
	singleWord bool
	// defaultValue, when set, is stored as the value instead of consuming
	// tokens; the rest of the message becomes the clean prompt text.
	defaultValue string
	// flags is the whitelist of flag keys this variable accepts.
	flags map[string]struct{}
}

var vocabulary = map[string]models.Variable{
	"alert":    models.VarAlert,
	"a":        models.VarAlert,
	"task":     models.VarTask,
	"t":        models.VarTask,
	"note":     models.VarNote,
	"n":        models.VarNote,
	"image":    models.VarImage,
	"i":        models.VarImage,
	"question": models.VarQuestion,
	"q":        models.VarQuestion,
}

var varSpecs = map[models.Variable]varSpec{
	models.VarAlert: {
		singleWord: true,
		flags:      flagSet("channel"),
	},
	models.VarTask: {
		flags: flagSet("description", "due"),
	},
	models.VarNote: {
		flags: flagSet("tag"),
	},
	models.VarImage: {
		flags: flagSet("size", "style"),
	},
	models.VarQuestion: {
		defaultValue: "ask",
		flags:        map[string]struct{}{},
	},
}

func flagSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

type state int

const (
	seekingVariable state = iota
	accumulatingValue
	accumulatingFlag
)

// Parse tokenizes a single message into a ParsedCommand. It fails only on
// blank input; unknown flags are dropped silently and must never break the
// surrounding parse.
func Parse(message string) (models.ParsedCommand, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return models.ParsedCommand{}, ErrEmptyMessage
	}

	cmd := models.ParsedCommand{
		Variable: models.VarNone,
		Flags:    make(map[string]string),
	}

	var spec varSpec
	var clean, value, flagWords []string
	flagKey := ""
	st := seekingVariable

	flushFlag := func() {
		if flagKey != "" {
			cmd.Flags[flagKey] = strings.Join(flagWords, " ")
		}
		flagKey = ""
		flagWords = nil
	}

	for _, tok := range strings.Fields(trimmed) {
		if cmd.Variable == models.VarNone && len(tok) > 1 && strings.HasPrefix(tok, variablePrefix) {
			if v, ok := vocabulary[strings.ToLower(tok[1:])]; ok {
				cmd.Variable = v
				spec = varSpecs[v]
				if spec.defaultValue != "" {
					value = append(value, spec.defaultValue)
					st = seekingVariable
				} else {
					st = accumulatingValue
				}
				continue
			}
			// not in the vocabulary, falls through to plain accumulation
		}

		if cmd.Variable != models.VarNone && len(tok) > 1 && strings.HasPrefix(tok, flagPrefix) {
			flushFlag()
			key := strings.ToLower(strings.TrimPrefix(tok, flagPrefix))
			if _, ok := spec.flags[key]; ok {
				flagKey = key
			}
			// unknown keys keep flagKey empty so their words are discarded
			st = accumulatingFlag
			continue
		}

		switch st {
		case accumulatingValue:
			value = append(value, tok)
			if spec.singleWord {
				st = seekingVariable
			}
		case accumulatingFlag:
			if flagKey != "" {
				flagWords = append(flagWords, tok)
			}
		default:
			clean = append(clean, tok)
		}
	}
	flushFlag()

	cmd.Value = strings.Join(value, " ")
	cmd.CleanMessage = strings.Join(clean, " ")
	return cmd, nil
}
