package cmd

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "procupilot"
)

type Config struct {
	Storage *StorageConfig `mapstructure:"storage"`
	Mail    *MailConfig    `mapstructure:"mail"`
	SMTP    *SMTPConfig    `mapstructure:"smtp"`
	AI      *AIConfig      `mapstructure:"ai"`
	Server  *ServerConfig  `mapstructure:"server"`
}

type StorageConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MailConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	PasswordFile  string        `mapstructure:"password-file"`
	TLSSkipVerify bool          `mapstructure:"tls-skip-verify"`
	PollInterval  time.Duration `mapstructure:"poll-interval"`
}

type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	From         string `mapstructure:"from"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Ollama   *OllamaConfig `mapstructure:"ollama"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "procupilot matches vendor proposal emails to open RFPs and ranks them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("mail.password", "IMAP_PASSWORD"); err != nil {
		log.Fatalf("binding IMAP_PASSWORD environment variable: %v", err)
	}

	if err := viper.BindEnv("storage.dsn", "DATABASE_DSN"); err != nil {
		log.Fatalf("binding DATABASE_DSN environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is procupilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for commands that touch storage, mail or models.
	if runCmd.CalledAs() == "" && vendorsAddCmd.CalledAs() == "" && vendorsListCmd.CalledAs() == "" {
		return
	}

	// Optional .env support. Real environment variables win over the file.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
