package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
)

// fakeOpenAI serves canned chat completion responses.
func fakeOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI("test-key", WithBaseURL("test-key", srv.URL+"/v1"))
}

// completionResponse builds a minimal chat completion body.
func completionResponse(content string) []byte {
	body := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  DefaultModel,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func TestOpenAI_Generate(t *testing.T) {
	var gotSystem string
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotSystem = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"thoughts": ["count digit by digit", "group the digits", "estimate"]}`))
	})

	thoughts, err := client.Generate(context.Background(), "", "count the threes", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"count digit by digit", "group the digits", "estimate"}, thoughts)
	assert.Contains(t, gotSystem, "generate diverse")
}

func TestOpenAI_Generate_ExpanderPromptForChildren(t *testing.T) {
	var gotSystem string
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotSystem = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"thoughts": ["next step"]}`))
	})

	_, err := client.Generate(context.Background(), "count digit by digit", "count the threes", 2)
	require.NoError(t, err)
	assert.Contains(t, gotSystem, "continuing a chain of reasoning")
}

func TestOpenAI_Generate_TruncatesToCount(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"thoughts": ["a", "b", "c", "d", "e"]}`))
	})

	thoughts, err := client.Generate(context.Background(), "", "p", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, thoughts)
}

func TestOpenAI_Generate_EmptyIsValid(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"thoughts": []}`))
	})

	thoughts, err := client.Generate(context.Background(), "", "p", 3)
	require.NoError(t, err)
	assert.Empty(t, thoughts)
}

func TestOpenAI_Evaluate(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"score": 0.95, "is_terminal": true, "answer": "11", "rationale": "counted"}`))
	})

	eval, err := client.Evaluate(context.Background(), "count digit by digit: 11 threes", "count the threes")
	require.NoError(t, err)
	assert.Equal(t, 0.95, eval.Score)
	assert.True(t, eval.Terminal)
	assert.Equal(t, "11", eval.Answer)
}

func TestOpenAI_Evaluate_ScoreOutOfRange(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`{"score": 1.5, "is_terminal": false}`))
	})

	_, err := client.Evaluate(context.Background(), "b", "p")
	require.Error(t, err)

	var valErr *errors.ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, errors.CategoryMalformed, errors.Categorize(err))
}

func TestOpenAI_MalformedOutput(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionResponse(`I think the answer is probably eleven.`))
	})

	_, err := client.Generate(context.Background(), "", "p", 3)
	require.Error(t, err)

	var parseErr *errors.OutputParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.True(t, errors.IsRetryable(err))
}

func TestOpenAI_RateLimitIsTransient(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	})

	_, err := client.Generate(context.Background(), "", "p", 3)
	require.Error(t, err)

	var httpErr *errors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, errors.CategoryTransient, errors.Categorize(err))
}

func TestUnmarshalOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain json", `{"thoughts": ["a"]}`, false},
		{"surrounding whitespace", "\n  {\"thoughts\": [\"a\"]}  \n", false},
		{"markdown fence", "```json\n{\"thoughts\": [\"a\"]}\n```", false},
		{"leading prose", `Here you go: {"thoughts": ["a"]}`, false},
		{"no json at all", "just some prose", true},
		{"broken json", `{"thoughts": ["a"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out generationOutput
			err := unmarshalOutput(tt.input, &out)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, []string{"a"}, out.Thoughts)
			}
		})
	}
}
