// Package notify delivers recommendations to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Alias1177/futures-analyzer/internal/model"
)

// Sender is the part of the bot API used for delivery
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to one chat, throttled and retried
type Telegram struct {
	bot        Sender
	chatID     int64
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	logger     zerolog.Logger
}

// NewTelegram connects a bot with token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return NewTelegramWithSender(bot, chatID), nil
}

// NewTelegramWithSender wraps an existing sender
func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		// Telegram allows about one message per second to the same chat
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		logger: log.With().Str("component", "telegram").Int64("chat_id", chatID).Logger(),
	}
}

// Send delivers a formatted recommendation
func (t *Telegram) Send(ctx context.Context, rec model.StrategyRecommendation) error {
	return t.SendText(ctx, FormatRecommendation(rec))
}

// SendText delivers a plain text message
func (t *Telegram) SendText(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	operation := func() error {
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Warn().Err(err).Msg("Telegram send failed, retrying")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(t.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Info().Int("length", len(text)).Msg("Message sent")
	return nil
}

var actionIcons = map[model.Action]string{
	model.ActionLong:  "📈",
	model.ActionShort: "📉",
	model.ActionHold:  "⏸",
}

// FormatRecommendation renders a recommendation as a chat message
func FormatRecommendation(rec model.StrategyRecommendation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", actionIcons[rec.Action], rec.Instrument, rec.Date)
	fmt.Fprintf(&sb, "Action: %s\n", strings.ToUpper(string(rec.Action)))
	fmt.Fprintf(&sb, "Price: %s\n", price(rec.CurrentPrice))
	fmt.Fprintf(&sb, "Stop loss: %s\n", optionalPrice(rec.StopLoss))
	fmt.Fprintf(&sb, "Take profit: %s\n", optionalPrice(rec.TakeProfit))
	fmt.Fprintf(&sb, "Success rate: %s%% (%s)\n", decimal.NewFromFloat(rec.SuccessRate).StringFixed(1), rec.SuccessGrade)
	fmt.Fprintf(&sb, "Risk/reward: %s (%s)\n", decimal.NewFromFloat(rec.RiskRewardRatio).StringFixed(2), rec.RiskRewardGrade)
	if rec.PositionSize > 0 {
		fmt.Fprintf(&sb, "Position size: %s\n", decimal.NewFromFloat(rec.PositionSize).StringFixed(2))
	}

	parts := make([]string, 0, len(rec.ClassProbabilities))
	for _, p := range rec.ClassProbabilities {
		pct := decimal.NewFromFloat(p.Probability).Mul(decimal.NewFromInt(100)).StringFixed(1)
		parts = append(parts, fmt.Sprintf("%s %s%%", p.Class.Action(), pct))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&sb, "Probabilities: %s", strings.Join(parts, " | "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optionalPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return price(*v)
}
