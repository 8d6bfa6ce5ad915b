// Package cli provides output rendering for the kotae command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteAnswer writes an answer to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	default:
		writeAnswerText(w, answer)
		return nil
	}
}

func writeAnswerText(w io.Writer, answer *models.Answer) {
	fmt.Fprintf(w, "\nAnswer: %s\n", answer.Answer)
	fmt.Fprintf(w, "\nConfidence: %.2f\n", answer.Confidence)
	if answer.Error != "" {
		fmt.Fprintf(w, "Degraded: %s\n", answer.Error)
	}
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, source := range answer.Sources {
		fmt.Fprintf(w, "  %d. %s - %s\n", i+1, source.Title, source.Section)
		fmt.Fprintf(w, "     URL: %s\n", source.URL)
		fmt.Fprintf(w, "     Relevance: %.3f\n", source.Relevance)
	}
}

// PrintAnswer prints an answer to stdout in text format.
func PrintAnswer(answer *models.Answer) {
	_ = WriteAnswer(os.Stdout, answer, OutputText)
}

// WriteStatus writes engine status to w in the given format.
func WriteStatus(w io.Writer, status *rag.Status, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	default:
		fmt.Fprintf(w, "Corpus chunks: %d\n", status.Chunks)
		fmt.Fprintf(w, "Index vectors: %d (%d dimensions)\n", status.IndexSize, status.Dimensions)
		fmt.Fprintf(w, "Embedding provider: %s\n", status.EmbeddingProvider)
		fmt.Fprintf(w, "QA provider: %s\n", status.QAProvider)
		return nil
	}
}
