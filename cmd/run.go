package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"github.com/procupilot/procupilot/internal/ai"
	"github.com/procupilot/procupilot/internal/ai/gemini"
	"github.com/procupilot/procupilot/internal/ai/ollama"
	"github.com/procupilot/procupilot/internal/extract"
	"github.com/procupilot/procupilot/internal/ingest"
	applog "github.com/procupilot/procupilot/internal/logger"
	"github.com/procupilot/procupilot/internal/mail"
	"github.com/procupilot/procupilot/internal/recommend"
	"github.com/procupilot/procupilot/internal/secrets"
	"github.com/procupilot/procupilot/internal/server"
	"github.com/procupilot/procupilot/internal/store"
)

const defaultListen = ":8080"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the procupilot server and the inbox ingestion worker",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("listen", "", "address for the api server (default :8080)")

	viper.BindPFlag("server.listen", runCmd.Flags().Lookup("listen"))
}

func run(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := applog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting procupilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Storage == nil || config.Storage.DSN == "" {
		logger.Fatal("database dsn is required under storage.dsn or DATABASE_DSN")
	}

	st, err := store.Open(postgres.Open(config.Storage.DSN))
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	completer, err := newCompleter(ctx, config.AI)
	if err != nil {
		logger.Fatal("building the ai completer", zap.Error(err))
	}

	aiLogger := applog.WithCommonFields(logger, aiProvider(config.AI), completer.Model())
	runner := ai.NewRunner(completer, aiTimeout(config.AI), aiLogger)

	extractor := extract.New(runner, logger)
	engine := recommend.New(runner, logger)

	if config.Mail != nil && config.Mail.Host != "" {
		password, err := resolveMailPassword(config.Mail)
		if err != nil {
			logger.Fatal("loading imap password", zap.Error(err))
		}

		source := mail.NewIMAPSource(mail.IMAPConfig{
			Host:          config.Mail.Host,
			Port:          config.Mail.Port,
			Username:      config.Mail.Username,
			Password:      password,
			TLSSkipVerify: config.Mail.TLSSkipVerify,
		}, logger)

		worker := ingest.NewWorker(source, st, extractor, config.Mail.PollInterval, logger)
		go worker.Run(ctx)
	} else {
		logger.Warn("mail host is not configured, inbox ingestion is disabled")
	}

	sender := newSender(config.SMTP, logger)

	srv := server.New(st, extractor, engine, sender, logger)

	listen := defaultListen
	if config.Server != nil && config.Server.Listen != "" {
		listen = config.Server.Listen
	}

	if err := srv.Run(ctx, listen); err != nil {
		logger.Fatal("api server failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func aiProvider(cfg *AIConfig) string {
	if cfg == nil || strings.TrimSpace(cfg.Provider) == "" {
		return "ollama"
	}
	return strings.ToLower(strings.TrimSpace(cfg.Provider))
}

func aiTimeout(cfg *AIConfig) time.Duration {
	if cfg == nil {
		return 0
	}
	return cfg.Timeout
}

func newCompleter(ctx context.Context, cfg *AIConfig) (ai.Completer, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", "ollama":
		var baseURL, model string
		if cfg.Ollama != nil {
			baseURL = cfg.Ollama.BaseURL
			model = cfg.Ollama.Model
		}
		return ollama.NewGenerator(baseURL, model)
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("gemini configuration is required when ai.provider is gemini")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key or ai.gemini.api-key-file)", err)
		}
		return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func resolveMailPassword(cfg *MailConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "imap password",
		Value: cfg.Password,
		File:  cfg.PasswordFile,
	})
}

func newSender(cfg *SMTPConfig, log *zap.Logger) *mail.SMTPSender {
	smtpConfig := mail.SMTPConfig{}
	if cfg != nil {
		smtpConfig = mail.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		}
		if cfg.PasswordFile != "" {
			if password, err := secrets.Load(secrets.Source{
				Name: "smtp password",
				File: cfg.PasswordFile,
			}); err == nil {
				smtpConfig.Password = password
			} else {
				log.Warn("loading smtp password file", zap.Error(err))
			}
		}
	}
	return mail.NewSMTPSender(smtpConfig, log)
}
