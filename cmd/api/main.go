package main

import (
	"github.com/gomantics/reposcout/config"
	"github.com/gomantics/reposcout/internal/api"
	"github.com/gomantics/reposcout/internal/api/analyze"
	"github.com/gomantics/reposcout/internal/api/ask"
	"github.com/gomantics/reposcout/internal/api/issue"
	"github.com/gomantics/reposcout/internal/domains/analysis"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/internal/domains/issues"
	"github.com/gomantics/reposcout/internal/domains/llm"
	"github.com/gomantics/reposcout/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(""); err != nil {
		logger.New().Fatal("failed to load configuration", zap.Error(err))
	}
	if err := config.Validate(); err != nil {
		logger.New().Fatal("invalid configuration", zap.Error(err))
	}

	fx.New(
		fx.Provide(
			logger.New,
			newConversationStore,
			llm.NewFromConfig,
			issues.NewFromConfig,
			func(l *zap.Logger, c *llm.Client) *analysis.Analyzer {
				return analysis.NewFromConfig(l, c)
			},
			func(c *llm.Client) ask.Client { return c },
			func(a *analysis.Analyzer) analyze.Analyzer { return a },
			func(p *issues.Publisher) issue.Publisher { return p },
			api.New,
		),
		fx.Decorate(func(l *zap.Logger) *zap.Logger {
			return l.With(zap.String("service", "reposcout"))
		}),
		fx.Invoke(
			api.Run,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{
				Logger: l,
			}
		}),
	).Run()
}

func newConversationStore(l *zap.Logger) (*conversations.Store, error) {
	return conversations.NewStore(l, config.Conversations.Capacity())
}
