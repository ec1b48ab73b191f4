package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/jusunglee/shittracker/internal/anthropic"
	"github.com/jusunglee/shittracker/internal/bot"
	"github.com/jusunglee/shittracker/internal/envsetup"
	"github.com/jusunglee/shittracker/internal/google"
	"github.com/jusunglee/shittracker/internal/health"
	"github.com/jusunglee/shittracker/internal/improve"
	"github.com/jusunglee/shittracker/internal/incident"
	"github.com/jusunglee/shittracker/internal/llm"
	"github.com/jusunglee/shittracker/internal/logger"
	"github.com/jusunglee/shittracker/internal/openrouter"
	"github.com/jusunglee/shittracker/internal/ratelimit"
	"github.com/mattn/go-isatty"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const envFile = ".env"

const (
	providerOpenRouter = "openrouter"
	providerAnthropic  = "anthropic"
	providerGoogle     = "google"
	providerNone       = "none"
)

var providers = []string{providerOpenRouter, providerAnthropic, providerGoogle, providerNone}

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type llmConfig struct {
	provider      string
	model         string
	openRouterKey string
	anthropicKey  string
	googleKey     string
}

func mainE() error {
	if wantsSetup(os.Args[1:]) || (envsetup.NeedsSetup(envFile) && isatty.IsTerminal(os.Stdin.Fd())) {
		written, err := envsetup.Run(envFile)
		if err != nil {
			return fmt.Errorf("running setup: %w", err)
		}
		if !written {
			return errors.New("setup cancelled")
		}
	}
	_ = godotenv.Load(envFile)

	fs := ff.NewFlagSet("shittracker")
	var (
		discordToken    = fs.StringLong("discord-bot-token", "", "Discord bot token")
		targetGuildID   = fs.StringLong("target-guild-id", "", "only watch this guild (empty watches all)")
		targetEmoji     = fs.StringLong("target-emoji", "💩", "reaction emoji that flags a message")
		commandPrefix   = fs.StringLong("command-prefix", "!st ", "prefix for text commands")
		llmProvider     = fs.StringLong("llm-provider", providerOpenRouter, "improvement backend: openrouter, anthropic, google or none")
		llmModel        = fs.StringLong("llm-model", "", "model override for the improvement backend")
		openRouterKey   = fs.StringLong("openrouter-api-key", "", "OpenRouter API key")
		anthropicKey    = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleKey       = fs.StringLong("google-api-key", "", "Google AI API key")
		rateLimitWindow = fs.DurationLong("rate-limit-window", ratelimit.DefaultWindow, "sliding window for flag rate limiting")
		rateLimitMax    = fs.IntLong("rate-limit-max", ratelimit.DefaultMaxActions, "flags per user per window")
		rateLimitKeep   = fs.IntLong("rate-limit-retention", ratelimit.DefaultRetention, "timestamps kept per user")
		eventTimeout    = fs.DurationLong("event-timeout", time.Minute, "deadline for handling a single event")
		healthPort      = fs.IntLong("health-port", 8080, "port for /health and /metrics (0 disables)")
		_               = fs.BoolLong("setup", "run the interactive .env setup wizard")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *discordToken == "" {
		return errors.New("discord-bot-token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New()

	client, err := newLLMClient(ctx, llmConfig{
		provider:      *llmProvider,
		model:         *llmModel,
		openRouterKey: *openRouterKey,
		anthropicKey:  *anthropicKey,
		googleKey:     *googleKey,
	})
	if err != nil {
		return err
	}

	var improver incident.Improver
	if client != nil {
		improver = improve.NewImprover(client)
		log.InfoContext(ctx, "message improvement enabled", "provider", *llmProvider)
	} else {
		log.WarnContext(ctx, "no LLM backend configured, message improvement disabled", "provider", *llmProvider)
	}

	dg, err := discordgo.New("Bot " + *discordToken)
	if err != nil {
		return fmt.Errorf("creating Discord session: %w", err)
	}
	dg.Identify.Intents = bot.Intents

	session := bot.NewDiscordSession(dg)
	botLog := bot.NewLogger(log)
	limiter := ratelimit.New(ratelimit.Config{
		Window:     *rateLimitWindow,
		MaxActions: *rateLimitMax,
		Retention:  *rateLimitKeep,
	})
	handler := incident.NewHandler(
		log,
		limiter,
		bot.NewIncidentSource(session, botLog),
		bot.NewNotifier(session),
		improver,
		incident.Config{Emoji: *targetEmoji, GuildID: *targetGuildID},
	)
	b := bot.New(botLog, session, handler, improver, bot.Config{
		CommandPrefix: *commandPrefix,
		EventTimeout:  *eventTimeout,
	})

	log.InfoContext(ctx, "starting bot",
		"emoji", *targetEmoji,
		"guild_id", lo.Ternary(*targetGuildID == "", "all", *targetGuildID),
		"rate_limit_window", *rateLimitWindow,
		"rate_limit_max", *rateLimitMax,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})

	if *healthPort > 0 {
		srv := health.New(*healthPort, func() bool {
			dg.RLock()
			defer dg.RUnlock()
			return dg.DataReady
		})
		g.Go(func() error {
			log.InfoContext(gctx, "starting health server", "addr", srv.Addr())
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bot stopped")
	return nil
}

// newLLMClient returns a nil client when the provider is "none" or its API
// key is missing.
func newLLMClient(ctx context.Context, cfg llmConfig) (llm.Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.provider))
	if !lo.Contains(providers, provider) {
		return nil, fmt.Errorf("unknown llm-provider %q (want one of %s)", cfg.provider, strings.Join(providers, ", "))
	}

	switch provider {
	case providerOpenRouter:
		if cfg.openRouterKey == "" {
			return nil, nil
		}
		return openrouter.NewClient(cfg.openRouterKey, "", cfg.model), nil
	case providerAnthropic:
		if cfg.anthropicKey == "" {
			return nil, nil
		}
		return anthropic.NewClient(cfg.anthropicKey, anthropic.Model(cfg.model), ""), nil
	case providerGoogle:
		if cfg.googleKey == "" {
			return nil, nil
		}
		client, err := google.NewClient(ctx, cfg.googleKey, google.Model(cfg.model), "")
		if err != nil {
			return nil, fmt.Errorf("building google backend: %w", err)
		}
		return client, nil
	}
	return nil, nil
}

func wantsSetup(args []string) bool {
	return lo.Contains(args, "--setup") || lo.Contains(args, "-setup")
}
