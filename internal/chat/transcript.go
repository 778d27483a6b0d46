package chat

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"
)

//go:embed transcript.tmpl
var transcriptTemplate string

const maxToolResultLength = 5000

// TranscriptEntry is one readable step of a conversation
type TranscriptEntry struct {
	Kind       string // "user", "assistant" or "tool"
	Text       string
	ToolName   string
	ToolInput  string
	ToolResult string
	IsError    bool
}

type transcriptData struct {
	SessionID    string
	CreatedAt    string
	InputTokens  int64
	OutputTokens int64
	Entries      []TranscriptEntry
}

// Transcript returns the steps of the conversation so far
func (s *Session) Transcript() []TranscriptEntry {
	return append([]TranscriptEntry(nil), s.transcript...)
}

// WriteTranscript renders the conversation as markdown
func (s *Session) WriteTranscript(w io.Writer, now time.Time) error {
	funcMap := template.FuncMap{
		"prettifyJSON": func(jsonStr string) string {
			var prettyJSON bytes.Buffer
			if err := json.Indent(&prettyJSON, []byte(jsonStr), "", "  "); err == nil {
				return prettyJSON.String()
			}
			return jsonStr
		},
		"truncateContent": func(content string) string {
			if len(content) > maxToolResultLength {
				return content[:maxToolResultLength] + "\n... (content truncated)"
			}
			return content
		},
	}

	tmpl, err := template.New("transcript").Funcs(funcMap).Parse(transcriptTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse transcript template: %w", err)
	}

	data := transcriptData{
		SessionID:    s.ID,
		CreatedAt:    now.Format("2006-01-02 15:04:05 MST"),
		InputTokens:  s.inputTokens,
		OutputTokens: s.outputTokens,
		Entries:      s.transcript,
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render transcript: %w", err)
	}
	return nil
}
