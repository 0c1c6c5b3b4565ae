// Package cli provides output helpers for the icebreaker command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/icebreaker/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value to an OutputFormat. Anything but "json" is text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteIngestResult writes the outcome of processing a profile.
func WriteIngestResult(w io.Writer, res *models.IngestResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	fmt.Fprintf(w, "\n%s\n\n", res.Summary)
	fmt.Fprintf(w, "Session: %s (model %s, %d nodes)\n", res.SessionID, res.Model, res.Nodes)
	return nil
}

// WriteReply writes one chat answer.
func WriteReply(w io.Writer, reply *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, reply)
	}
	fmt.Fprintf(w, "\n%s\n", reply.Answer)
	if reply.Outcome != "" && reply.Outcome != "ok" {
		fmt.Fprintf(w, "(%s)\n", reply.Outcome)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteTurns writes a session transcript, oldest turn first.
func WriteTurns(w io.Writer, turns []*models.Turn, format OutputFormat) error {
	if format == OutputJSON {
		if turns == nil {
			turns = []*models.Turn{}
		}
		return WriteJSON(w, turns)
	}
	fmt.Fprintf(w, "\n%d turns\n\n", len(turns))
	for _, t := range turns {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] %s | %s\n", t.Kind, t.CreatedAt.Format("2006-01-02 15:04:05"), t.Outcome)
		if t.Question != "" {
			fmt.Fprintf(w, "Q: %s\n", t.Question)
		}
		fmt.Fprintf(w, "A: %s\n\n", TruncateWords(t.Answer, 60))
	}
	return nil
}

// WriteStatus writes a status document as aligned key/value lines, keys sorted.
// Nested maps are written indented under their key.
func WriteStatus(w io.Writer, status map[string]interface{}) {
	writeStatus(w, status, "")
}

func writeStatus(w io.Writer, status map[string]interface{}, indent string) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := status[k].(type) {
		case map[string]interface{}:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeStatus(w, v, indent+"  ")
		case []interface{}:
			parts := make([]string, len(v))
			for i, x := range v {
				parts[i] = fmt.Sprint(x)
			}
			fmt.Fprintf(w, "%s%-20s %s\n", indent, k+":", strings.Join(parts, ", "))
		case []string:
			fmt.Fprintf(w, "%s%-20s %s\n", indent, k+":", strings.Join(v, ", "))
		default:
			fmt.Fprintf(w, "%s%-20s %v\n", indent, k+":", v)
		}
	}
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
