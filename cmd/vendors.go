package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	applog "github.com/procupilot/procupilot/internal/logger"
	"github.com/procupilot/procupilot/internal/store"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Manage the vendor registry",
}

var vendorsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a vendor interactively",
	Run: func(_ *cobra.Command, _ []string) {
		vendorsAdd()
	},
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered vendors",
	Run: func(_ *cobra.Command, _ []string) {
		vendorsList()
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
	vendorsCmd.AddCommand(vendorsAddCmd, vendorsListCmd)
}

func openStore(logger *zap.Logger) *store.Store {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Storage == nil || config.Storage.DSN == "" {
		logger.Fatal("database dsn is required under storage.dsn or DATABASE_DSN")
	}

	st, err := store.Open(postgres.Open(config.Storage.DSN))
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	return st
}

func vendorsAdd() {
	logger, err := applog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	st := openStore(logger)
	defer st.Close()

	required := func(label string) promptui.Prompt {
		return promptui.Prompt{
			Label: label,
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return errors.New("value is required")
				}
				return nil
			},
		}
	}

	namePrompt := required("Vendor name")
	name, err := namePrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	emailPrompt := required("Vendor email")
	email, err := emailPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	contactPrompt := promptui.Prompt{Label: "Contact person (optional)"}
	contact, err := contactPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	notesPrompt := promptui.Prompt{Label: "Notes (optional)"}
	notes, err := notesPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	vendor := &store.Vendor{
		Name:    strings.TrimSpace(name),
		Email:   email,
		Contact: strings.TrimSpace(contact),
		Notes:   strings.TrimSpace(notes),
	}
	if err := st.CreateVendor(context.Background(), vendor); err != nil {
		logger.Fatal("creating the vendor", zap.Error(err))
	}

	logger.Info("vendor created",
		zap.String("vendor_id", vendor.ID),
		zap.String("email", vendor.Email),
	)
}

func vendorsList() {
	logger, err := applog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	st := openStore(logger)
	defer st.Close()

	vendors, err := st.ListVendors(context.Background())
	if err != nil {
		logger.Fatal("listing vendors", zap.Error(err))
	}

	if len(vendors) == 0 {
		fmt.Println("no vendors registered")
		return
	}

	for _, vendor := range vendors {
		line := fmt.Sprintf("%s  %s <%s>", vendor.ID, vendor.Name, vendor.Email)
		if vendor.Contact != "" {
			line += "  contact: " + vendor.Contact
		}
		fmt.Println(line)
	}
}
