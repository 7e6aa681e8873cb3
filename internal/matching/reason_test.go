package matching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"partyup/internal/llm"
)

type stubClient struct {
	response string
	err      error
	prompts  []llm.Prompt
}

func (s *stubClient) Complete(_ context.Context, p llm.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestReasoner_Reason(t *testing.T) {
	stub := &stubClient{response: "Both of you love punishing action RPGs."}
	r := NewReasoner(stub, nil)

	match := Match{UserID: "u2", Interests: []string{"Dark Souls"}}
	got := r.Reason(context.Background(), []string{"Elden Ring"}, match)
	if got != "Both of you love punishing action RPGs." {
		t.Errorf("unexpected reason: %q", got)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(stub.prompts))
	}
	if stub.prompts[0].MaxTokens != 50 {
		t.Errorf("expected MaxTokens=50, got %d", stub.prompts[0].MaxTokens)
	}
	if !strings.Contains(stub.prompts[0].System, "Elden Ring") || !strings.Contains(stub.prompts[0].System, "Dark Souls") {
		t.Error("expected both interest lists in the prompt")
	}
}

func TestReasoner_Reason_CapsPromptLists(t *testing.T) {
	stub := &stubClient{response: "ok"}
	r := NewReasoner(stub, nil)

	mine := []string{"g1", "g2", "g3", "g4", "g5", "g6", "g7"}
	r.Reason(context.Background(), mine, Match{Interests: []string{"x"}})

	if strings.Contains(stub.prompts[0].System, "g6") {
		t.Error("expected interest list capped at 5 entries in the prompt")
	}
}

func TestReasoner_Reason_EmptyLists(t *testing.T) {
	stub := &stubClient{response: "should not be called"}
	r := NewReasoner(stub, nil)

	got := r.Reason(context.Background(), nil, Match{Interests: []string{"x"}})
	if got != reasonFallbackGeneric {
		t.Errorf("expected generic fallback, got %q", got)
	}
	if len(stub.prompts) != 0 {
		t.Error("empty lists must not call the LLM")
	}
}

func TestReasoner_Reason_LLMError(t *testing.T) {
	stub := &stubClient{err: errors.New("boom")}
	r := NewReasoner(stub, nil)

	got := r.Reason(context.Background(), []string{"a"}, Match{Interests: []string{"b"}})
	if got != reasonFallbackGameplay {
		t.Errorf("expected gameplay fallback, got %q", got)
	}
}

func TestReasoner_Reason_EmptyResponse(t *testing.T) {
	stub := &stubClient{response: "   "}
	r := NewReasoner(stub, nil)

	got := r.Reason(context.Background(), []string{"a"}, Match{Interests: []string{"b"}})
	if got != reasonFallbackCommon {
		t.Errorf("expected common fallback, got %q", got)
	}
}
