package processor

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidekit/aide/internal/gateway"
)

func TestDecodeIntentPayload(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "bare json",
			raw:  `{"intent":"task.create","text":"buy milk"}`,
			want: "task.create",
			ok:   true,
		},
		{
			name: "code fences",
			raw:  "```json\n{\"intent\":\"note.create\",\"text\":\"x\"}\n```",
			want: "note.create",
			ok:   true,
		},
		{
			name: "fences without language",
			raw:  "```\n{\"intent\":\"alert.list\"}\n```",
			want: "alert.list",
			ok:   true,
		},
		{
			name: "chatter around the object",
			raw:  `Sure! Here you go: {"intent":"search","text":"plumber"} hope that helps`,
			want: "search",
			ok:   true,
		},
		{
			name: "trailing comma",
			raw:  `{"intent":"task.list",}`,
			want: "task.list",
			ok:   true,
		},
		{
			name: "missing intent field",
			raw:  `{"text":"no intent here"}`,
			ok:   false,
		},
		{
			name: "not json at all",
			raw:  `I could not classify that.`,
			ok:   false,
		},
		{
			name: "unbalanced braces",
			raw:  `{"intent":"question"`,
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, ok := decodeIntentPayload(tc.raw)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, payload.Intent)
			}
		})
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "short", truncate("short", contextTurnChars))

	long := strings.Repeat("héllo wörld ", 40)
	out := truncate(long, contextTurnChars)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, contextTurnChars+1, utf8.RuneCountInString(out))
	assert.Equal(t, string([]rune(long)[:contextTurnChars])+"…", out)
}

func TestFallbackCreatesTask(t *testing.T) {
	f := newFixture(`{"intent":"task.create","text":"buy milk"}`)
	ctx := context.Background()

	resp := f.proc.Process(ctx, input("could you add buying milk to my list"))
	require.NotNil(t, resp.Message)
	assert.Contains(t, resp.Message.Content, "buy milk")

	tasks, err := f.tasks.List(ctx, 1, gateway.ListFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)
}

func TestFallbackFencedResponseParsesIdentically(t *testing.T) {
	bare := newFixture(`{"intent":"note.create","text":"wifi password is hunter2"}`)
	fenced := newFixture("```json\n{\"intent\":\"note.create\",\"text\":\"wifi password is hunter2\"}\n```")
	ctx := context.Background()

	r1 := bare.proc.Process(ctx, input("please remember the wifi password"))
	r2 := fenced.proc.Process(ctx, input("please remember the wifi password"))

	require.NotNil(t, r1.Message)
	require.NotNil(t, r2.Message)
	assert.Equal(t, r1.Message.Content, r2.Message.Content)
}

func TestFallbackUnknownIntent(t *testing.T) {
	f := newFixture(`{"intent":"interpretive.dance"}`)

	resp := f.proc.Process(context.Background(), input("do something odd"))
	require.NotNil(t, resp.Message)
	assert.Equal(t, msgNotUnderstood, resp.Message.Content)
}

func TestFallbackUnusableResponse(t *testing.T) {
	f := newFixture("I have no idea what that was.")

	resp := f.proc.Process(context.Background(), input("gibberish input"))
	require.NotNil(t, resp.Message)
	assert.Equal(t, msgNotUnderstood, resp.Message.Content)
}

func TestFallbackBackendUnavailable(t *testing.T) {
	f := newFixture()
	f.backend.Fail = true

	resp := f.proc.Process(context.Background(), input("free form text"))
	require.NotNil(t, resp.Message)
	assert.Equal(t, msgBackendDown, resp.Message.Content)
}

func TestFallbackAlertCreateWithWhen(t *testing.T) {
	f := newFixture(`{"intent":"alert.create","when":"30m","text":"take the bread out"}`)
	ctx := context.Background()

	resp := f.proc.Process(ctx, input("the bread needs to come out in half an hour"))
	require.NotNil(t, resp.Message)
	assert.Contains(t, resp.Message.Content, "take the bread out")

	pending, err := f.alerts.ListPending(ctx, 1, gateway.ListFilter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestFallbackQuestionAnswers(t *testing.T) {
	f := newFixture(`{"intent":"question"}`, "Paris.")

	resp := f.proc.Process(context.Background(), input("what is the capital of France"))
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Paris.", resp.Message.Content)
	// one classification call plus one answering call
	assert.Len(t, f.backend.Requests, 2)
}

func TestFallbackSearchNotes(t *testing.T) {
	f := newFixture(`{"intent":"search","text":"plumber"}`)
	ctx := context.Background()

	f.proc.Process(ctx, input(".note call the plumber tomorrow"))
	resp := f.proc.Process(ctx, input("what did I write about the plumber"))
	require.NotNil(t, resp.Message)
	assert.Contains(t, resp.Message.Content, "call the plumber")
}
