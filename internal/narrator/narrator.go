// Package narrator turns a generated report into a spoken audio file.
package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

var unspeakable = regexp.MustCompile(`[*#-]`)

var newlineRuns = regexp.MustCompile(`\n{2,}`)

// Narrator writes synthesized narration into the audio directory.
type Narrator struct {
	synth   ports.Synthesizer
	voice   string
	timeout time.Duration
	dir     string
	md      goldmark.Markdown
	logger  *slog.Logger
}

var _ ports.Narrator = (*Narrator)(nil)

// New builds a narrator that stores audio under dir.
func New(synth ports.Synthesizer, cfg config.SpeechConfig, dir string, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Narrator{
		synth:   synth,
		voice:   cfg.Voice,
		timeout: timeout,
		dir:     dir,
		md:      goldmark.New(),
		logger:  logger.With("component", "narrator"),
	}
}

// Narrate synthesizes intro followed by the spoken form of text and returns the written file name.
// On any failure it returns an empty name and the error; no partial file is left behind.
func (n *Narrator) Narrate(ctx context.Context, body, intro, fileName string) (string, error) {
	if n.synth == nil {
		return "", fmt.Errorf("no synthesizer configured")
	}

	script := intro + Speakable(n.md, body)
	if strings.TrimSpace(script) == "" {
		return "", fmt.Errorf("nothing to narrate")
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	audio, err := n.synth.Synthesize(ctx, script, n.voice)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}

	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	path := filepath.Join(n.dir, fileName)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write audio: %w", err)
	}

	n.logger.Info("narration written", "file", fileName, "bytes", len(audio), "elapsed", time.Since(start).Round(time.Millisecond))
	return fileName, nil
}

// Speakable flattens markdown into plain text and drops markup characters a voice would read aloud.
func Speakable(md goldmark.Markdown, source string) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := unspeakable.ReplaceAllString(b.String(), "")
	out = newlineRuns.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}
