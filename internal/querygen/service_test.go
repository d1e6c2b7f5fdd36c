package querygen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompleter is a mock implementation of the language model interface
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) GetName() string { return "mock" }

func (m *MockCompleter) IsEnabled() bool { return true }

func (m *MockCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*llm.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestService_Generate(t *testing.T) {
	completer := &MockCompleter{}
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == 0.8 &&
			req.MaxTokens == 500 &&
			strings.Contains(req.SystemPrompt, "Swedish") &&
			strings.Contains(req.Prompt, "Keywords: löparskor") &&
			strings.Contains(req.Prompt, "competitors (Nike, Adidas)")
	})).Return(&llm.Response{Text: "```json\n" + `{"löparskor": [
		"bästa löparskor för nybörjare",
		"  bästa löparskor för nybörjare ",
		"är Nike bra för trail?",
		"hållbara skor för lång distans",
		""
	]}` + "\n```"}, nil)

	service := NewService(completer, 500)
	queries, err := service.Generate(context.Background(), Request{
		Brand:       "Salomon",
		Competitors: []string{"Nike", "Adidas"},
		Keywords:    []string{" löparskor "},
		Language:    "sv",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"löparskor": {"bästa löparskor för nybörjare", "hållbara skor för lång distans"},
	}, queries)
	completer.AssertExpectations(t)
}

func TestService_Generate_InvalidInput(t *testing.T) {
	service := NewService(&MockCompleter{}, 500)

	_, err := service.Generate(context.Background(), Request{Keywords: []string{"shoes"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Generate(context.Background(), Request{Brand: "Nike", Keywords: []string{"  "}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Generate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response *llm.Response
		err      error
		target   error
	}{
		{name: "Provider rate limited", err: llm.ErrRateLimited, target: llm.ErrRateLimited},
		{name: "Not JSON", response: &llm.Response{Text: "Sorry, I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &MockCompleter{}
			if tt.response != nil {
				completer.On("Complete", mock.Anything, mock.Anything).Return(tt.response, nil)
			} else {
				completer.On("Complete", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			_, err := NewService(completer, 500).Generate(context.Background(), Request{Brand: "Nike", Keywords: []string{"shoes"}})
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "Norwegian", LanguageName("NO"))
	assert.Equal(t, "Finnish", LanguageName("fi"))
	assert.Equal(t, "Danish", LanguageName("da"))
	assert.Equal(t, "English", LanguageName("de"))
	assert.Equal(t, "English", LanguageName(""))
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Plain JSON unchanged", input: `{"a":["b"]}`, want: `{"a":["b"]}`},
		{name: "Fenced block", input: "```json\n{\"a\":[]}\n```", want: `{"a":[]}`},
		{name: "Prose around JSON", input: `Here you go: {"a":[]} Enjoy!`, want: `{"a":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.input))
		})
	}
}
