package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed system_prompt.md
var systemPromptTemplate string

type promptData struct {
	Date        string
	PerPage     int
	FallbackOrg string
}

// SystemPrompt renders the system prompt for a session
func SystemPrompt(now time.Time, perPage int, fallbackOrg string) (string, error) {
	tmpl, err := template.New("system").Parse(systemPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse system prompt template: %w", err)
	}

	data := promptData{
		Date:        now.Format("2006-01-02"),
		PerPage:     perPage,
		FallbackOrg: fallbackOrg,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute system prompt template: %w", err)
	}
	return buf.String(), nil
}
