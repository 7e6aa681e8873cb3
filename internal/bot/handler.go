package bot

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"partyup/internal/matching"
)

// handleTimeout bounds one extract-save-match-reply pipeline.
const handleTimeout = 2 * time.Minute

// Extractor turns a user message into interest keywords.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// InterestSaver persists a user's interests. *store.Store satisfies it.
type InterestSaver interface {
	SaveInterests(ctx context.Context, userID, username string, interests []string) error
}

// MatchFinder finds partners for a user. *matching.Matcher satisfies it.
type MatchFinder interface {
	FindMatches(ctx context.Context, userID string, interests []string) ([]matching.Match, error)
}

// ReasonWriter explains a match. *matching.Reasoner satisfies it.
type ReasonWriter interface {
	Reason(ctx context.Context, mine []string, m matching.Match) string
}

// Sender sends Telegram messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler runs the per-update pipeline.
type Handler struct {
	send      Sender
	extractor Extractor
	saver     InterestSaver
	matcher   MatchFinder
	reasoner  ReasonWriter
	logger    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(send Sender, extractor Extractor, saver InterestSaver, matcher MatchFinder, reasoner ReasonWriter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		send:      send,
		extractor: extractor,
		saver:     saver,
		matcher:   matcher,
		reasoner:  reasoner,
		logger:    logger.Named("bot"),
	}
}

// HandleUpdate dispatches one update. Updates without a text message are
// ignored.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	// Detached from the poller's cancellation so an update caught by a
	// shutdown still finishes its pipeline and replies; the timeout keeps
	// the drain bounded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()

	logger := h.logger.With(
		zap.String("trace_id", uuid.New().String()),
		zap.Int64("user_id", msg.From.ID))

	if msg.IsCommand() {
		if msg.Command() == "start" {
			h.reply(logger, msg.Chat.ID, welcomeText)
		}
		return
	}
	if msg.Text == "" {
		return
	}

	h.handleText(ctx, logger, msg)
}

// handleText runs the extract, save, match, reply pipeline.
func (h *Handler) handleText(ctx context.Context, logger *zap.Logger, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	username := displayName(msg.From)

	interests, err := h.extractor.Extract(ctx, msg.Text)
	if err != nil {
		logger.Error("interest extraction failed", zap.Error(err))
		h.reply(logger, msg.Chat.ID, busyText)
		return
	}
	if len(interests) == 0 {
		h.reply(logger, msg.Chat.ID, noInterestsText)
		return
	}

	if err := h.saver.SaveInterests(ctx, userID, username, interests); err != nil {
		logger.Error("failed to save interests", zap.Error(err))
		h.reply(logger, msg.Chat.ID, saveFailedText)
		return
	}

	matches, err := h.matcher.FindMatches(ctx, userID, interests)
	if err != nil {
		logger.Error("match pass failed", zap.Error(err))
		h.reply(logger, msg.Chat.ID, busyText)
		return
	}

	if len(matches) == 0 {
		h.reply(logger, msg.Chat.ID, noMatchesText)
		return
	}

	var exact []matching.Match
	for _, m := range matches {
		if len(m.CommonGames) > 0 {
			exact = append(exact, m)
		}
	}
	if len(exact) > 0 {
		h.reply(logger, msg.Chat.ID, exactSummaryText(exact))
	}

	shown := matches
	if len(shown) > shownMatches {
		shown = shown[:shownMatches]
	}
	for _, m := range shown {
		reason := h.reasoner.Reason(ctx, interests, m)
		h.reply(logger, msg.Chat.ID, matchCardText(m, reason))
	}

	logger.Info("match reply sent",
		zap.Int("interests", len(interests)),
		zap.Int("matches", len(matches)))
}

func (h *Handler) reply(logger *zap.Logger, chatID int64, text string) {
	if _, err := h.send.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Warn("failed to send reply", zap.Error(err))
	}
}

// displayName falls back from @username to first name to a placeholder.
func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Anonymous Player"
}
