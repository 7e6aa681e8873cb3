// Package bot runs the Telegram long-polling loop and the per-update
// matching pipeline.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Bot polls Telegram for updates and hands each one to the Handler on its
// own goroutine, bounded by a concurrency cap.
type Bot struct {
	api         *tgbotapi.BotAPI
	handler     *Handler
	pollTimeout time.Duration
	sem         *semaphore.Weighted
	logger      *zap.Logger

	wg sync.WaitGroup
}

// New authenticates against the Telegram API and wires the update pipeline.
func New(token string, pollTimeout time.Duration, maxInFlight int, extractor Extractor, saver InterestSaver, matcher MatchFinder, reasoner ReasonWriter, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}

	return &Bot{
		api:         api,
		handler:     NewHandler(api, extractor, saver, matcher, reasoner, logger),
		pollTimeout: pollTimeout,
		sem:         semaphore.NewWeighted(int64(maxInFlight)),
		logger:      logger.Named("bot"),
	}, nil
}

// Run polls for updates until the context is cancelled, then drains in-flight
// handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot running",
		zap.String("bot_username", b.api.Self.UserName),
		zap.Int("poll_timeout_s", u.Timeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("shutdown requested, draining in-flight updates")
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			if err := b.sem.Acquire(ctx, 1); err != nil {
				// Context cancelled while waiting for a slot.
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer b.sem.Release(1)
				b.handler.HandleUpdate(ctx, update)
			}()
		}
	}
}
