package blog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
)

func testPublisher(t *testing.T) (*Publisher, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.PublisherConfig{
		Root:           root,
		PostDir:        "source/_posts",
		AudioDir:       "source/audio",
		AudioURLPrefix: "/audio/",
	}
	return NewPublisher(cfg), cfg.PostPath()
}

func sampleReport() domain.Report {
	return domain.Report{
		Kind:        domain.KindNews,
		Date:        time.Date(2025, 3, 7, 8, 5, 9, 0, time.UTC),
		Title:       "2025-03-07 CS2 全球战报：HLTV 每日速递",
		Description: "过去24小时圈内大事一览。",
		Tags:        []string{"电竞新闻", "CS2资讯", "播客"},
		Body:        "## 赛事战报\nVitality 夺冠\n",
	}
}

func splitPost(t *testing.T, content []byte) (frontMatter, string) {
	t.Helper()
	require.True(t, bytes.HasPrefix(content, []byte("---\n")))
	parts := strings.SplitN(string(content), "---\n", 3)
	require.Len(t, parts, 3)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	return fm, parts[2]
}

func TestPublishWritesPostWithFrontMatter(t *testing.T) {
	t.Parallel()

	pub, dir := testPublisher(t)
	path, err := pub.Publish(context.Background(), sampleReport())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2025-03-07-news.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	fm, body := splitPost(t, content)
	require.Equal(t, "2025-03-07 CS2 全球战报：HLTV 每日速递", fm.Title)
	require.Equal(t, postDate("2025-03-07 08:05:09"), fm.Date)
	require.Contains(t, string(content), "\ndate: 2025-03-07 08:05:09\n")
	require.Equal(t, []string{"电竞新闻", "CS2资讯", "播客"}, fm.Tags)
	require.Equal(t, "过去24小时圈内大事一览。", fm.Description)
	require.Contains(t, string(content), "tags: [电竞新闻, CS2资讯, 播客]")
	require.Equal(t, "## 赛事战报\nVitality 夺冠\n", body)
	require.NotContains(t, body, "<audio")
}

func TestPublishEmbedsAudioPlayer(t *testing.T) {
	t.Parallel()

	pub, _ := testPublisher(t)
	report := sampleReport()
	report.AudioFile = report.AudioName()
	report.AudioLabel = "📻 电竞日报 (点击收听)"

	path, err := pub.Publish(context.Background(), report)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	_, body := splitPost(t, content)
	require.Contains(t, body, `<source src="/audio/20250307_news.mp3" type="audio/mpeg">`)
	require.Contains(t, body, "📻 电竞日报 (点击收听)")
	require.Less(t, strings.Index(body, "<audio"), strings.Index(body, "## 赛事战报"))
}

func TestPublishReplacesExistingPost(t *testing.T) {
	t.Parallel()

	pub, _ := testPublisher(t)
	first := sampleReport()
	first.Body = "第一版"
	second := sampleReport()
	second.Body = "第二版"

	_, err := pub.Publish(context.Background(), first)
	require.NoError(t, err)
	path, err := pub.Publish(context.Background(), second)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "第二版")
	require.NotContains(t, string(content), "第一版")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	pub, dir := testPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pub.Publish(ctx, sampleReport())
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr))
}
