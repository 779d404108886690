package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgassist/tgassist/internal/logger"
)

// Update kinds for metrics.
const (
	kindCommand  = "command"
	kindMessage  = "message"
	kindCallback = "callback"
	kindOther    = "other"
)

const defaultWorkers = 8

// updateSource is the long-polling part of *tgbotapi.BotAPI.
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler processes a single update.
type UpdateHandler interface {
	Handle(ctx context.Context, upd tgbotapi.Update) error
}

// PollerConfig tunes long polling.
type PollerConfig struct {
	Timeout time.Duration // long-poll timeout
	Workers int           // concurrent updates in flight
}

// Poller receives updates and dispatches them to the handler.
type Poller struct {
	source  updateSource
	handler UpdateHandler
	cfg     PollerConfig
	logger  *zap.Logger
	updates *prometheus.CounterVec
}

// NewPoller creates a Poller. updates (label "kind") may be nil.
func NewPoller(source updateSource, handler UpdateHandler, cfg PollerConfig, logger *zap.Logger, updates *prometheus.CounterVec) *Poller {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Poller{source: source, handler: handler, cfg: cfg, logger: logger, updates: updates}
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(p.cfg.Timeout.Seconds())
	ch := p.source.GetUpdatesChan(u)

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)

	// In-flight updates finish even after shutdown starts.
	handleCtx := context.WithoutCancel(ctx)

	p.logger.Info("Telegram polling started", zap.Int("workers", p.cfg.Workers))
	defer p.logger.Info("Telegram polling stopped")

loop:
	for {
		select {
		case <-ctx.Done():
			p.source.StopReceivingUpdates()
			break loop
		case upd, ok := <-ch:
			if !ok {
				break loop
			}
			g.Go(func() error {
				p.dispatch(handleCtx, upd)
				return nil
			})
		}
	}

	return g.Wait() //nolint:wrapcheck // workers never fail
}

func (p *Poller) dispatch(ctx context.Context, upd tgbotapi.Update) {
	ctx = logger.ForUpdate(ctx, p.logger, upd.UpdateID, senderID(upd))
	log := logger.FromContext(ctx)
	kind := updateKind(upd)
	start := time.Now()

	defer func() {
		if rvr := recover(); rvr != nil {
			log.Error("panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stacktrace"),
			)
		}
	}()

	if p.updates != nil {
		p.updates.WithLabelValues(kind).Inc()
	}

	if err := p.handler.Handle(ctx, upd); err != nil {
		log.Warn("Update handling failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	log.Debug("telegram_update",
		zap.String("kind", kind),
		zap.Duration("latency", time.Since(start)),
	)
}

func updateKind(upd tgbotapi.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return kindCallback
	case upd.Message != nil && upd.Message.IsCommand():
		return kindCommand
	case upd.Message != nil:
		return kindMessage
	default:
		return kindOther
	}
}

func senderID(upd tgbotapi.Update) int64 {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.From.ID
	default:
		return 0
	}
}
