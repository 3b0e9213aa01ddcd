package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
)

type sentMessage struct {
	path string
	form url.Values
}

func marketReport() domain.Report {
	return domain.Report{
		Kind:        domain.KindMarket,
		Date:        time.Date(2026, time.October, 16, 8, 30, 0, 0, time.UTC),
		Title:       "2026-10-16 CS2 饰品量化扫描：超跌与过热榜",
		Description: "AK-47 <Redline> & 其他",
		AudioFile:   "20261016_quant.mp3",
	}
}

func TestAnnouncePostsHTMLMessage(t *testing.T) {
	t.Parallel()

	sent := make(chan sentMessage, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		sent <- sentMessage{path: r.URL.Path, form: r.PostForm}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "123:abc", ChatID: "-1001", SiteURL: "https://blog.example.com/"})
	n.apiBase = server.URL

	require.NoError(t, n.Announce(context.Background(), marketReport()))

	got := <-sent
	require.Equal(t, "/bot123:abc/sendMessage", got.path)
	require.Equal(t, "-1001", got.form.Get("chat_id"))
	require.Equal(t, "HTML", got.form.Get("parse_mode"))
	require.Equal(t, n.Message(marketReport()), got.form.Get("text"))
}

func TestMessageCarriesLinkAndAudioMarker(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.TelegramConfig{SiteURL: "https://blog.example.com/"})
	msg := n.Message(marketReport())

	require.Contains(t, msg, "📈 饰品量化 · <b>2026-10-16 CS2 饰品量化扫描：超跌与过热榜</b>")
	require.Contains(t, msg, "AK-47 &lt;Redline&gt; &amp; 其他")
	require.Contains(t, msg, "🔊 附语音播报")
	require.Contains(t, msg, `<a href="https://blog.example.com/2026/10/16/2026-10-16-quant/">阅读全文</a>`)
}

func TestMessageWithoutSiteOrAudio(t *testing.T) {
	t.Parallel()

	report := marketReport()
	report.Kind = domain.KindReport
	report.AudioFile = ""

	msg := NewNotifier(config.TelegramConfig{}).Message(report)
	require.NotContains(t, msg, "🔊")
	require.NotContains(t, msg, "<a href")
	require.Contains(t, msg, "<code>2026-10-16-report.md</code>")
	require.Empty(t, NewNotifier(config.TelegramConfig{}).PostURL(report))
}

func TestAnnounceErrors(t *testing.T) {
	t.Parallel()

	require.Error(t, NewNotifier(config.TelegramConfig{}).Announce(context.Background(), marketReport()))
	require.False(t, NewNotifier(config.TelegramConfig{BotToken: "t"}).Configured())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c"})
	n.apiBase = server.URL
	require.ErrorContains(t, n.Announce(context.Background(), marketReport()), "chat not found")
}
