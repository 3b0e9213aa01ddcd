package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

var kindBadges = map[domain.ReportKind]string{
	domain.KindNews:   "📰 CS2 战报",
	domain.KindMarket: "📈 饰品量化",
	domain.KindReport: "📊 市场简报",
}

// Notifier announces freshly published posts in a Telegram chat.
type Notifier struct {
	apiBase string
	token   string
	chatID  string
	siteURL string
	client  *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds a bot client for one chat.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	return &Notifier{
		apiBase: defaultAPIBase,
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both the token and the chat are set.
func (n *Notifier) Configured() bool {
	return n != nil && n.token != "" && n.chatID != ""
}

// Announce sends the post headline, its audio marker and a link to the post.
func (n *Notifier) Announce(ctx context.Context, report domain.Report) error {
	if !n.Configured() {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", n.Message(report))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// Message renders the HTML announcement for a report.
func (n *Notifier) Message(report domain.Report) string {
	var b strings.Builder
	if badge, ok := kindBadges[report.Kind]; ok {
		b.WriteString(badge)
		b.WriteString(" · ")
	}
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(report.Title))
	if report.Description != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(report.Description))
	}
	if report.HasAudio() {
		b.WriteString("\n🔊 附语音播报")
	}
	if link := n.PostURL(report); link != "" {
		fmt.Fprintf(&b, "\n<a href=\"%s\">阅读全文</a>", html.EscapeString(link))
	} else {
		fmt.Fprintf(&b, "\n<code>%s</code>", html.EscapeString(report.PostName()))
	}
	return b.String()
}

// PostURL follows Hexo's default :year/:month/:day/:title/ permalink.
// It is empty when no site URL is configured.
func (n *Notifier) PostURL(report domain.Report) string {
	if n.siteURL == "" {
		return ""
	}
	slug := strings.TrimSuffix(report.PostName(), ".md")
	return fmt.Sprintf("%s/%s/%s/", n.siteURL, report.Date.Format("2006/01/02"), url.PathEscape(slug))
}
