package blog

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// Publisher writes reports as Hexo markdown posts.
type Publisher struct {
	dir       string
	audioURL  string
	separator string
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds a publisher rooted at the configured post directory.
func NewPublisher(cfg config.PublisherConfig) *Publisher {
	return &Publisher{
		dir:       cfg.PostPath(),
		audioURL:  strings.TrimRight(cfg.AudioURLPrefix, "/"),
		separator: "---\n",
	}
}

type frontMatter struct {
	Title       string   `yaml:"title"`
	Date        postDate `yaml:"date"`
	Tags        []string `yaml:"tags,flow"`
	Description string   `yaml:"description,omitempty"`
}

// postDate is a "2006-01-02 15:04:05" stamp emitted as a plain YAML timestamp,
// the unquoted form Hexo front matter is usually written in.
type postDate string

func (d postDate) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: string(d)}, nil
}

// Publish renders the post and replaces any existing file of the same date and kind.
func (p *Publisher) Publish(ctx context.Context, report domain.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := p.Render(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create post dir: %w", err)
	}

	path := filepath.Join(p.dir, report.PostName())
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write post %s: %w", path, err)
	}
	return path, nil
}

// Render produces the full post: front matter, optional audio player, body.
func (p *Publisher) Render(report domain.Report) ([]byte, error) {
	tags := report.Tags
	if tags == nil {
		tags = []string{}
	}
	meta, err := yaml.Marshal(frontMatter{
		Title:       report.Title,
		Date:        postDate(report.Date.Format(dateTimeLayout)),
		Tags:        tags,
		Description: report.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(p.separator)
	buf.Write(meta)
	buf.WriteString(p.separator)
	if report.HasAudio() {
		buf.WriteString(p.player(report))
	}
	buf.WriteString(strings.TrimSpace(report.Body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (p *Publisher) player(report domain.Report) string {
	label := report.AudioLabel
	if label == "" {
		label = "点击收听"
	}
	return fmt.Sprintf(`
<div style="background:#eef2ff;padding:12px;border-radius:8px;margin-bottom:20px;">
  <div style="font-weight:bold;margin-bottom:8px;">%s</div>
  <audio controls style="width:100%%;"><source src="%s/%s" type="audio/mpeg"></audio>
</div>

`, html.EscapeString(label), p.audioURL, report.AudioFile)
}
