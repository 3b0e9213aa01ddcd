package ports

import (
	"context"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/domain"
)

// NewsSource pulls entries from a syndication feed.
type NewsSource interface {
	Fetch(ctx context.Context) ([]domain.NewsItem, error)
}

// CatalogSource pulls the bulk item price catalog.
type CatalogSource interface {
	Fetch(ctx context.Context) (domain.Catalog, error)
}

// ChatClient sends role-tagged messages to a language model and returns its reply.
type ChatClient interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// Synthesizer turns text into encoded audio for the given voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Narrator produces an audio file for a report body and returns its file name.
type Narrator interface {
	Narrate(ctx context.Context, text, intro, fileName string) (string, error)
}

// Publisher renders and persists a report, returning the written path.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) (string, error)
}

// ReportArchive records published reports for history.
type ReportArchive interface {
	SaveReport(ctx context.Context, report domain.Report) error
}

// Notifier announces published reports to Telegram or other channels.
type Notifier interface {
	Announce(ctx context.Context, report domain.Report) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Schedule(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
