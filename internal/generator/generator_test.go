package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/punchamoorthee/estatedocs/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	resp  openai.ChatCompletionResponse
	err   error
	calls int
	last  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "second"}},
	}}
}

func TestOpenAIRequestShape(t *testing.T) {
	fc := &fakeCompleter{resp: reply("CONTRACT\nBody")}
	g := NewOpenAIWithClient(fc, "")

	text, err := g.Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "CONTRACT\nBody" {
		t.Fatalf("text = %q", text)
	}
	if fc.last.Model != openai.GPT4Turbo || fc.last.MaxTokens != MaxOutputTokens {
		t.Fatalf("model/max tokens = %q/%d", fc.last.Model, fc.last.MaxTokens)
	}
	if len(fc.last.Messages) != 2 ||
		fc.last.Messages[0].Role != openai.ChatMessageRoleSystem ||
		fc.last.Messages[0].Content != prompt.SystemInstruction ||
		fc.last.Messages[1].Content != "the prompt" {
		t.Fatalf("messages = %#v", fc.last.Messages)
	}
}

func TestOpenAIFailuresAreGenerationErrors(t *testing.T) {
	cases := map[string]*fakeCompleter{
		"backend error": {err: &openai.APIError{HTTPStatusCode: 429, Message: "quota exceeded"}},
		"transport":     {err: errors.New("connection reset")},
		"no choices":    {resp: openai.ChatCompletionResponse{}},
		"blank":         {resp: reply("   \n")},
	}
	for name, fc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewOpenAIWithClient(fc, "gpt-4o").Generate(context.Background(), "p")
			if !errors.Is(err, domain.ErrGeneration) {
				t.Fatalf("err = %v", err)
			}
			if fc.calls != 1 {
				t.Fatalf("calls = %d, want exactly one attempt", fc.calls)
			}
		})
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIOptions{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := New(Options{Backend: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestMockEchoesFields(t *testing.T) {
	req := domain.DocumentRequest{
		DocumentType: "lease_agreement", BuyerName: "Alice", SellerName: "Bob",
		ClientName: "Client", PropertyAddress: "123 Main St", PurchasePrice: "0",
		ClosingDate: "TBD", PartyRole: "N/A", PropertyState: "Florida",
		TransactionType: "Residential Purchase", ClauseHOA: true,
	}
	g, err := New(Options{Backend: BackendMock})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text, err := g.Generate(context.Background(), prompt.Build(req))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, s := range []string{"LEASE AGREEMENT", "Alice", "Bob", "123 Main St", "HOA Disclosure: true"} {
		if !strings.Contains(text, s) {
			t.Errorf("mock text missing %q:\n%s", s, text)
		}
	}
}

func TestMockHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMock().Generate(ctx, "p"); !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("err = %v", err)
	}
}
