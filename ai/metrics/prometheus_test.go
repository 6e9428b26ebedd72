package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	t.Run("RecordTurn", func(t *testing.T) {
		exporter.RecordTurn("rag_query", 100*time.Millisecond, true)
		exporter.RecordTurn("rag_query", 250*time.Millisecond, true)
		exporter.RecordTurn("quiz_request", 2*time.Second, false)

		exporter.SetActiveTurns(3)
	})

	t.Run("RecordFallbackAndMemory", func(t *testing.T) {
		exporter.RecordWebFallback()
		exporter.RecordMemoryRecall("hit")
		exporter.RecordMemoryRecall("degraded")
		exporter.RecordMemoryWrite("explicit")
		exporter.RecordMemoryWrite("auto")
	})

	t.Run("RecordLLM", func(t *testing.T) {
		exporter.RecordLLMTokens("llama-3.1-8b-instant", "prompt", 100)
		exporter.RecordLLMTokens("llama-3.1-8b-instant", "completion", 50)
		exporter.RecordLLMLatency("llama-3.1-8b-instant", 500*time.Millisecond)
	})
}

func TestPrometheusExporterHandler(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordTurn("general_explanation", 100*time.Millisecond, true)
	exporter.RecordWebFallback()
	exporter.RecordMemoryWrite("auto")

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"mlmentor_ai_turns_total",
		"mlmentor_ai_web_fallbacks_total",
		"mlmentor_ai_memory_writes_total",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
