package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"

	"github.com/consultiq/consultiq/internal/api"
	"github.com/consultiq/consultiq/internal/engine"
	"github.com/consultiq/consultiq/internal/genai"
	"github.com/consultiq/consultiq/internal/notify"
	"github.com/consultiq/consultiq/internal/store"
	"github.com/consultiq/consultiq/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ConsultIQ state data
	DefaultStateDir = "/var/lib/consultiq"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "consultiq.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	eng := engine.NewEngine(slog.Default())

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startNotificationSender(ctx, flags, st)

	var server *api.Server
	if ga := buildGenAIClient(flags); ga != nil {
		server = api.NewServer(st, eng, ga, apiOpts...)
	} else {
		server = api.NewServer(st, eng, nil, apiOpts...)
	}

	slog.Info("Bootstrapping ConsultIQ", "api_addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "")
	if err := server.Run(ctx); err != nil {
		slog.Error("ConsultIQ failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ConsultIQ exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	LeadFrom    string
	LeadTo      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	model     *string
	apiAddr   *string
	smtpHost  *string
	smtpPort  *int
	smtpUser  *string
	smtpPass  *string
	leadFrom  *string
	leadTo    *string
}

// initializeLogger sets up structured logging. Debug level is enabled via
// CONSULTIQ_DEBUG.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CONSULTIQ_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		StateDir:    os.Getenv("CONSULTIQ_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		LeadFrom:    os.Getenv("LEAD_NOTIFY_FROM"),
		LeadTo:      os.Getenv("LEAD_NOTIFY_TO"),
	}

	if port := os.Getenv("SMTP_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			slog.Warn("Invalid SMTP_PORT, ignoring", "value", port)
		} else {
			config.SMTPPort = n
		}
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CONSULTIQ_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"CONSULTIQ_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"SMTP_HOST_SET", config.SMTPHost != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for ConsultIQ data (overrides $CONSULTIQ_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseDSN, "database DSN (overrides $DATABASE_DSN)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:     flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		smtpHost:  flag.String("smtp-host", config.SMTPHost, "SMTP host for lead notifications (overrides $SMTP_HOST)"),
		smtpPort:  flag.Int("smtp-port", config.SMTPPort, "SMTP port (overrides $SMTP_PORT)"),
		smtpUser:  flag.String("smtp-user", config.SMTPUser, "SMTP username (overrides $SMTP_USER)"),
		smtpPass:  flag.String("smtp-pass", config.SMTPPass, "SMTP password (overrides $SMTP_PASS)"),
		leadFrom:  flag.String("lead-from", config.LeadFrom, "From address for lead notifications (overrides $LEAD_NOTIFY_FROM)"),
		leadTo:    flag.String("lead-to", config.LeadTo, "To address for lead notifications (overrides $LEAD_NOTIFY_TO)"),
	}

	flag.Parse()

	// Follow a moved state directory when the DSN was derived from the default.
	if *flags.dbDSN == config.DatabaseDSN && config.DatabaseDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated db-dsn based on state directory", "state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"smtpHost", *flags.smtpHost)

	return flags
}

// buildStore opens the backing store selected by the DSN.
func buildStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Info("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN", "dsn_type", "postgres")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}

// buildGenAIClient creates the phrasing client, or nil when no API key is
// configured. The server falls back to canned templates without it.
func buildGenAIClient(flags Flags) *genai.Client {
	if *flags.openaiKey == "" {
		slog.Warn("No OpenAI API key configured, responses will use built-in templates")
		return nil
	}
	opts := []genai.Option{genai.WithAPIKey(*flags.openaiKey)}
	if *flags.model != "" {
		opts = append(opts, genai.WithModel(openai.ChatModel(*flags.model)))
	}
	client, err := genai.NewClient(opts...)
	if err != nil {
		slog.Warn("GenAI client initialization failed, responses will use built-in templates", "error", err)
		return nil
	}
	return client
}

// startNotificationSender launches the lead notification sender when SMTP is
// configured. Without it, queued notifications stay in the store.
func startNotificationSender(ctx context.Context, flags Flags, st store.Store) {
	if *flags.smtpHost == "" {
		slog.Info("No SMTP host configured, lead notifications disabled")
		return
	}

	opts := []notify.Option{
		notify.WithSMTPHost(*flags.smtpHost),
		notify.WithFrom(*flags.leadFrom),
		notify.WithTo(*flags.leadTo),
	}
	if *flags.smtpPort != 0 {
		opts = append(opts, notify.WithSMTPPort(*flags.smtpPort))
	}
	if *flags.smtpUser != "" {
		opts = append(opts, notify.WithSMTPAuth(*flags.smtpUser, *flags.smtpPass))
	}

	mailer, err := notify.NewMailer(opts...)
	if err != nil {
		slog.Error("Mailer initialization failed, lead notifications disabled", "error", err)
		return
	}

	sender := notify.NewSender(st, mailer, 0)
	go sender.Run(ctx)
	slog.Info("Lead notification sender started", "smtp_host", *flags.smtpHost)
}
