package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"konbini-planner/internal/catalog"
	"konbini-planner/internal/config"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/planner"
	"konbini-planner/internal/progress"
)

const planUsage = "Usage: `/plan age sex height weight goal days activity budget store`\n" +
	"Example: `/plan 33 male 173 78 70 60 medium 1000 seven`\n" +
	"Send a bare `/plan` to repeat your last request."

const historyLimit = 5

// Bot wraps the Telegram API and the planner.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	metricsStore *metrics.Store
	sessions     *SessionRepository
	cfg          *config.Config
	now          func() time.Time
	logger       zerolog.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	p *planner.Planner,
	metricsStore *metrics.Store,
	sessions *SessionRepository,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	b := newBot(cfg, p, metricsStore, sessions)
	b.api = api
	b.logger.Info().Str("account", api.Self.UserName).Msg("authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	b.logger.Info().Str("description", resp.Description).Msg("webhook set")

	return b, nil
}

func newBot(cfg *config.Config, p *planner.Planner, metricsStore *metrics.Store, sessions *SessionRepository) *Bot {
	return &Bot{
		planner:      p,
		metricsStore: metricsStore,
		sessions:     sessions,
		cfg:          cfg,
		now:          time.Now,
		logger:       log.With().Str("component", "telegram").Logger(),
	}
}

// Handler serves the webhook and a health probe.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn().Err(err).Msg("error parsing update")
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.allowed(update.Message.From.ID) {
		b.logger.Warn().Int64("user_id", update.Message.From.ID).Str("username", update.Message.From.UserName).Msg("unauthorized access attempt")
		return
	}

	go b.processMessage(update.Message)
}

// allowed admits everyone when no allow-list is configured.
func (b *Bot) allowed(userID int64) bool {
	if len(b.cfg.TelegramAllowedUserIDs) == 0 {
		return true
	}
	return slices.Contains(b.cfg.TelegramAllowedUserIDs, userID)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text := b.respond(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send reply")
	}
}

// respond maps a command to its reply text.
func (b *Bot) respond(ctx context.Context, userID int64, command, args string) string {
	switch command {
	case "plan":
		return b.handlePlan(ctx, userID, args)
	case "stores":
		return "🏪 *Stores*\n" + strings.Join(b.planner.Catalog().Stores(), "\n")
	case "history":
		return b.handleHistory(ctx, userID)
	case "progress":
		return handleProgress(args)
	case "metrics":
		if userID != b.cfg.AdminTelegramID {
			return "⛔ *Access Denied*: Admin only."
		}
		return b.handleMetrics()
	}
	return "🍙 *Konbini Planner*\n\n" + planUsage +
		"\n\n`/stores` lists stores, `/history` shows your recent plans, `/progress start goal current` shows how far you are."
}

func (b *Bot) handlePlan(ctx context.Context, userID int64, args string) string {
	uid := strconv.FormatInt(userID, 10)

	var req planner.Request
	if strings.TrimSpace(args) == "" {
		last, err := b.lastRequest(ctx, uid)
		if err != nil {
			b.logger.Error().Err(err).Str("user", uid).Msg("failed to load session")
		}
		if last == nil {
			return planUsage
		}
		req = *last
	} else {
		parsed, err := parsePlanArgs(args, b.now())
		if err != nil {
			return fmt.Sprintf("❌ %s\n\n%s", escapeMarkdown(err.Error()), planUsage)
		}
		req = parsed
	}
	req.UserID = uid

	res, err := b.planner.Plan(ctx, req)
	if err != nil {
		return planErrorText(err)
	}

	if b.sessions != nil {
		if err := b.sessions.SaveLastRequest(ctx, uid, req); err != nil {
			b.logger.Error().Err(err).Str("user", uid).Msg("failed to save session")
		}
	}
	return formatPlanMarkdown(res)
}

func (b *Bot) lastRequest(ctx context.Context, uid string) (*planner.Request, error) {
	if b.sessions == nil {
		return nil, nil
	}
	return b.sessions.LastRequest(ctx, uid, b.now())
}

func planErrorText(err error) string {
	switch {
	case errors.Is(err, planner.ErrInvalidInput):
		return "❌ " + escapeMarkdown(err.Error())
	case errors.Is(err, planner.ErrInfeasibleCatalog), errors.Is(err, planner.ErrNoFeasiblePlan):
		return "🤷 *No plan found.* Try a higher budget or another store."
	case errors.Is(err, context.DeadlineExceeded):
		return "⏱ Planning took too long. Please try again."
	}
	return "❌ *Error generating plan:*\n```\n" + strings.ReplaceAll(err.Error(), "`", "'") + "\n```"
}

func (b *Bot) handleHistory(ctx context.Context, userID int64) string {
	results, err := b.planner.History(ctx, strconv.FormatInt(userID, 10), historyLimit)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load history")
		return "❌ Error fetching your history."
	}
	if len(results) == 0 {
		return "_No plans yet._"
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Recent plans*\n\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "• %s %s: %d kcal / ¥%d (target %d)\n",
			r.CreatedAt.Format("2006-01-02"), escapeMarkdown(r.Store), r.Plan.Calories, r.Plan.Price, r.Estimate.Intake)
	}
	return sb.String()
}

func handleProgress(args string) string {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "Usage: `/progress start goal current` (kg)"
	}
	var v [3]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return "Usage: `/progress start goal current` (kg)"
		}
		v[i] = n
	}

	p := progress.Percent(v[0], v[1], v[2])
	level := progress.Level(p)
	return fmt.Sprintf("📈 *Progress*: %.0f%%\n%s %s",
		p*100, strings.Repeat("★", level)+strings.Repeat("☆", progress.MaxLevel-level), progress.Caption(level))
}

func (b *Bot) handleMetrics() string {
	if b.metricsStore == nil {
		return "Metrics are disabled."
	}
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch metrics")
		return "❌ Error fetching metrics."
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d plans (%d failed, avg dev %.0f kcal), %d tokens (%d execs)\n",
			d.Date, d.Plans, d.Failures, d.AvgDeviation, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

// parsePlanArgs reads "age sex height weight goal days activity budget store".
func parsePlanArgs(args string, today time.Time) (planner.Request, error) {
	var req planner.Request
	f := strings.Fields(args)
	if len(f) != 9 {
		return req, fmt.Errorf("expected 9 values, got %d", len(f))
	}

	ints := map[int]*int{0: &req.Age, 7: &req.Budget}
	for idx, dst := range ints {
		n, err := strconv.Atoi(f[idx])
		if err != nil {
			return req, fmt.Errorf("%q is not a whole number", f[idx])
		}
		*dst = n
	}
	floats := map[int]*float64{2: &req.HeightCM, 3: &req.WeightKG, 4: &req.GoalKG}
	for idx, dst := range floats {
		n, err := strconv.ParseFloat(f[idx], 64)
		if err != nil {
			return req, fmt.Errorf("%q is not a number", f[idx])
		}
		*dst = n
	}
	days, err := strconv.Atoi(f[5])
	if err != nil || days < 0 {
		return req, fmt.Errorf("days must be zero or more, got %q", f[5])
	}

	req.Sex = f[1]
	req.Deadline = today.AddDate(0, 0, days).Format(planner.DateLayout)
	req.Activity = f[6]
	req.Store = strings.ToLower(f[8])
	return req, nil
}

func formatPlanMarkdown(res *planner.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍙 *Today's plan at %s*\n", escapeMarkdown(res.Store))
	fmt.Fprintf(&sb, "Target %d kcal (maintenance %d, %d days left)\n\n", res.Estimate.Intake, res.Estimate.TDEE, res.Estimate.Days)

	for _, s := range catalog.MealSlots {
		combo := res.Plan.Slot(s)
		fmt.Fprintf(&sb, "*%s* (%d kcal, ¥%d)\n", strings.ToUpper(string(s[:1]))+string(s[1:]), combo.Calories, combo.Price)
		for _, it := range combo.Items {
			fmt.Fprintf(&sb, "• %s: %d kcal, ¥%d\n", escapeMarkdown(it.Name), it.Calories, it.Price)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "*Total*: %d kcal / ¥%d (%+d kcal, split %s)\n", res.Plan.Calories, res.Plan.Price, res.Delta, res.Split)
	for _, w := range res.Warnings {
		fmt.Fprintf(&sb, "⚠️ %s\n", escapeMarkdown(w))
	}
	if res.Note != "" {
		fmt.Fprintf(&sb, "\n_%s_\n", escapeMarkdown(res.Note))
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

