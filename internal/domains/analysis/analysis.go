package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomantics/reposcout/config"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"github.com/gomantics/reposcout/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAnalysisFailed wraps any model failure during an analysis.
var ErrAnalysisFailed = errors.New("analysis failed")

// DefaultMetadataTimeout bounds the metadata lookup when none is configured.
const DefaultMetadataTimeout = 10 * time.Second

// Sender sends one conversation turn to the model.
type Sender interface {
	Send(ctx context.Context, conversationID string, msgs ...conversations.Message) (string, error)
}

// MetadataFetcher looks up facts about a repository for the prompt.
type MetadataFetcher interface {
	Fetch(ctx context.Context, ref gitrepo.Reference) (*gitrepo.RepoMetadata, error)
}

// Analyzer turns a repository locator into improvement suggestions. It
// never touches the issue tracker.
type Analyzer struct {
	llm      Sender
	meta     MetadataFetcher
	l        *zap.Logger
	maxTurns int

	// metaTimeout bounds each metadata lookup so a stalled remote cannot
	// hold up the model call.
	metaTimeout time.Duration

	newID func() string
}

// New creates an Analyzer. meta may be nil, in which case the prompt
// only names the repository. maxTurns bounds the number of model calls
// per analysis, counting re-prompts after unusable replies.
func New(l *zap.Logger, llm Sender, meta MetadataFetcher, maxTurns int) *Analyzer {
	return &Analyzer{
		llm:      llm,
		meta:     meta,
		l:        l,
		maxTurns: max(1, maxTurns),

		metaTimeout: DefaultMetadataTimeout,
		newID:       uuid.NewString,
	}
}

// NewFromConfig creates an Analyzer from the analysis.* configuration keys.
func NewFromConfig(l *zap.Logger, llm Sender) *Analyzer {
	var meta MetadataFetcher
	if config.Analysis.FetchMetadata() {
		meta = gitrepo.NewInspector(l, config.Github.Token())
	}
	a := New(l, llm, meta, config.Analysis.MaxTurns())
	if d := config.Analysis.MetadataTimeout(); d > 0 {
		a.metaTimeout = d
	}
	return a
}

// Analyze resolves locator, asks the model for suggestions in a fresh
// conversation and parses the reply. Invalid locators fail with
// gitrepo.ErrInvalidReference before anything else happens.
func (a *Analyzer) Analyze(ctx context.Context, locator string) (*Result, error) {
	ref, err := gitrepo.Resolve(locator)
	if err != nil {
		return nil, err
	}

	l := a.l.With(zap.String("repository", ref.String()))

	meta := a.fetchMetadata(ctx, l, ref)

	convID := fmt.Sprintf("analysis-%s-%s-%s", ref.Owner, ref.Repo, a.newID())
	l = l.With(zap.String("conversation_id", convID))
	l.Info("starting repository analysis")

	var (
		reply       string
		suggestions []Suggestion
	)
	for turn := 1; turn <= a.maxTurns; turn++ {
		prompt := analysisPrompt(ref, meta)
		if turn > 1 {
			prompt = strictPrompt()
		}

		reply, err = a.llm.Send(ctx, convID, conversations.UserMessage(prompt))
		if err != nil {
			l.Error("analysis failed", zap.Int("turn", turn), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
		}

		suggestions = Extract(reply)
		if len(suggestions) > 0 {
			break
		}

		l.Warn("reply held no suggestion",
			zap.Int("turn", turn),
			zap.String("reply", logger.Preview(reply, 200)),
		)
	}

	res := &Result{
		Repository:     ref.String(),
		AnalysisMethod: Method,
		ConversationID: convID,
		Metadata:       meta,
		Suggestions:    suggestions,
		RawResponse:    reply,
	}

	if len(suggestions) > 0 {
		first := suggestions[0]
		payload := first.Payload()
		res.SynthesizedAnalysis = &first
		res.GithubPayload = &payload
	}

	l.Info("repository analysis completed", zap.Int("suggestions", len(suggestions)))

	return res, nil
}

func (a *Analyzer) fetchMetadata(ctx context.Context, l *zap.Logger, ref gitrepo.Reference) *gitrepo.RepoMetadata {
	if a.meta == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.metaTimeout)
	defer cancel()

	meta, err := a.meta.Fetch(ctx, ref)
	if err != nil {
		l.Warn("repository metadata unavailable", zap.Error(err))
		return nil
	}
	return meta
}
