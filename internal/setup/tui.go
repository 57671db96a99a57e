package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/papertrade/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform     string
		depositStr   string
		walDir       string
		webAddr      string
		pollStr      string
		confirm      bool
	)

	// defaults
	depositStr = "10000"
	walDir = "./wal/transactions"
	webAddr = ":8080"
	pollStr = "5s"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("PAPERTRADE CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your simulated brokerage account.\n"))

	// price source
	fmt.Println(stepStyle.Render("STEP 1: PRICE SOURCE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should quotes come from?").
				Options(
					huh.NewOption("Fixed table (deterministic simulation)", "static"),
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// initial deposit
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERTRADE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: FUNDING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial deposit").
				Description("Cash to start with (0 starts empty)").
				Value(&depositStr).
				Validate(validateDeposit),
		),
	).Run()
	if err != nil {
		return err
	}

	// storage and dashboard
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERTRADE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: STORAGE & DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Transaction log directory").
				Value(&walDir),
			huh.NewInput().
				Title("Dashboard listen address").
				Value(&webAddr),
			huh.NewInput().
				Title("Dashboard refresh interval").
				Description("Duration string (e.g. 2s, 5s, 30s)").
				Value(&pollStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirm
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERTRADE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Save config? (%s quotes, %s deposit)", platform, depositStr)).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled")
	}

	pollInterval, _ := time.ParseDuration(pollStr)

	cfgTmp := config.ConfigTmp{
		Platform:       platform,
		InitialDeposit: depositStr,
		WalDir:         walDir,
		WebAddr:        webAddr,
		PollInterval:   pollInterval,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validateDeposit(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
