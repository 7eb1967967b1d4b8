// Package setup implements the interactive terminal wizard that
// generates the YAML configuration file.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
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

// generated mirrors the YAML layout the config package reads.
type generated struct {
	API struct {
		PublicKey  string `yaml:"public_key"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"api"`
	DCA []generatedPair `yaml:"dca"`
}

type generatedPair struct {
	Pair                  string `yaml:"pair"`
	Delay                 int    `yaml:"delay"`
	Amount                string `yaml:"amount"`
	LimitFactor           string `yaml:"limit_factor,omitempty"`
	MaxPrice              string `yaml:"max_price,omitempty"`
	IgnoreDifferingOrders bool   `yaml:"ignore_differing_orders,omitempty"`
}

// RunWizard launches the terminal configuration wizard and writes the
// result to path.
func RunWizard(path string) error {
	var cfg generated

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up periodic purchases in a few steps.\n"))

	fmt.Println(stepStyle.Render("STEP 1: API CREDENTIALS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kraken API public key").
				Description("Leave empty to use the KRAKEN_API_KEY environment variable").
				Value(&cfg.API.PublicKey),
			huh.NewInput().
				Title("Kraken API private key").
				Description("Leave empty to use the KRAKEN_API_SECRET environment variable").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.API.PrivateKey),
		),
	).Run()
	if err != nil {
		return err
	}

	for i := 1; ; i++ {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(fmt.Sprintf("STEP 2: PAIR #%d", i)))

		pair, err := askPair()
		if err != nil {
			return err
		}
		cfg.DCA = append(cfg.DCA, pair)

		var more bool
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another pair?").
					Value(&more),
			),
		).Run()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := ""
	for _, p := range cfg.DCA {
		summary += fmt.Sprintf("Pair: %s, every %d day(s), amount: %s\n", p.Pair, p.Delay, p.Amount)
	}
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	var confirm bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))

	return nil
}

func askPair() (generatedPair, error) {
	p := generatedPair{Delay: 1}
	delayStr := "1"

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pair").
				Description("Kraken pair id, e.g. XETHZEUR").
				Validate(notEmpty).
				Value(&p.Pair),
			huh.NewInput().
				Title("Delay (days between purchases)").
				Validate(validateDelay).
				Value(&delayStr),
			huh.NewInput().
				Title("Amount (quote asset per purchase)").
				Validate(validateAmount).
				Value(&p.Amount),
			huh.NewInput().
				Title("Limit factor").
				Description("Optional, scales the ask price, e.g. 0.98").
				Validate(validateOptionalDecimal).
				Value(&p.LimitFactor),
			huh.NewInput().
				Title("Maximum price").
				Description("Optional, skip the purchase above this limit price").
				Validate(validateOptionalDecimal).
				Value(&p.MaxPrice),
			huh.NewConfirm().
				Title("Ignore orders with a differing amount (±1%)?").
				Value(&p.IgnoreDifferingOrders),
		),
	).Run()
	if err != nil {
		return generatedPair{}, err
	}

	p.Delay, _ = strconv.Atoi(delayStr)

	return p, nil
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func validateDelay(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a number > 0")
	}
	return nil
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be > 0")
	}
	return nil
}

func validateOptionalDecimal(s string) error {
	if s == "" {
		return nil
	}
	return validateAmount(s)
}
