package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// promptData is what title, description and prompt templates can reference.
type promptData struct {
	Date    string
	Content string
}

// Generator turns formatted input into a model-written report body.
type Generator struct {
	chat   ports.ChatClient
	system string
	user   *template.Template
}

// NewGenerator parses the user prompt template. A nil chat client disables generation.
func NewGenerator(chat ports.ChatClient, prompt config.PromptConfig) (*Generator, error) {
	user, err := template.New("prompt").Option("missingkey=error").Parse(prompt.User)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Generator{chat: chat, system: prompt.System, user: user}, nil
}

// Enabled reports whether a model is configured.
func (g *Generator) Enabled() bool {
	return g != nil && g.chat != nil
}

// Messages builds the system/user pair sent to the model.
func (g *Generator) Messages(date, content string) ([]domain.Message, error) {
	var buf bytes.Buffer
	if err := g.user.Execute(&buf, promptData{Date: date, Content: content}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	messages := make([]domain.Message, 0, 2)
	if strings.TrimSpace(g.system) != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: g.system})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: buf.String()})
	return messages, nil
}

// Generate returns the model reply verbatim, or "" when no model is configured.
func (g *Generator) Generate(ctx context.Context, date, content string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}

	messages, err := g.Messages(date, content)
	if err != nil {
		return "", err
	}

	reply, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}

func renderText(name, text string, data promptData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
