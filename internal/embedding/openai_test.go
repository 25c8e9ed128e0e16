package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, vec []float32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
			return
		}
		resp := map[string]any{
			"object": "list",
			"model":  "test-model",
			"data": []map[string]any{
				{"object": "embedding", "embedding": vec, "index": 0},
			},
			"usage": map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3}
	server := embeddingServer(t, want, http.StatusOK)
	defer server.Close()

	emb, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: server.URL, Model: "test-model", Dimensions: 3})
	if err != nil {
		t.Fatal(err)
	}
	got, err := emb.Embed(context.Background(), "query: trademark")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, got[i], want[i])
		}
	}
}

func TestOpenAIEmbedder_dimensionMismatch(t *testing.T) {
	server := embeddingServer(t, []float32{0.1, 0.2}, http.StatusOK)
	defer server.Close()

	emb, _ := NewOpenAIEmbedder(OpenAIConfig{BaseURL: server.URL, Model: "m", Dimensions: 3})
	_, err := emb.Embed(context.Background(), "x")
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected *DimensionMismatchError, got %v", err)
	}
	if dm.Expected != 3 || dm.Actual != 2 {
		t.Errorf("got %+v", dm)
	}
}

func TestOpenAIEmbedder_apiError(t *testing.T) {
	server := embeddingServer(t, nil, http.StatusTooManyRequests)
	defer server.Close()

	emb, _ := NewOpenAIEmbedder(OpenAIConfig{BaseURL: server.URL, Model: "m", Dimensions: 3})
	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestNewOpenAIEmbedder_validates(t *testing.T) {
	if _, err := NewOpenAIEmbedder(OpenAIConfig{Model: "m"}); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewOpenAIEmbedder(OpenAIConfig{Dimensions: 3}); err == nil {
		t.Error("expected error for empty model")
	}
}
