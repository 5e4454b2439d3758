// internal/wizard/wizard.go
//
// Interactive setup wizard: walks the user through creating an Amazon
// security profile, obtaining a refresh token via the authorization-code
// flow, selecting vendor and skill, and persisting the connector settings
// file.
package wizard

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/smapi"
)

var (
	// Styles
	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Underline(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// errInputClosed is returned when the input stream is exhausted before the
// wizard collected all answers, e.g. piped input or Ctrl-D.
var errInputClosed = errors.New("input closed before the wizard finished")

// AccountClient is the remote surface the wizard needs for vendor and skill
// selection.
type AccountClient interface {
	Authenticate(ctx context.Context) error
	Vendors(ctx context.Context) ([]smapi.Vendor, error)
	ListSkills(ctx context.Context) ([]smapi.SkillSummary, error)
}

// Wizard drives the interactive three-step setup flow.
type Wizard struct {
	in     *bufio.Scanner
	out    io.Writer
	logger logger.Logger

	// Injected for tests.
	newClient    func(caps *config.Capabilities) AccountClient
	exchangeCode func(ctx context.Context, clientID, clientSecret, code string) (string, error)
}

func New(in io.Reader, out io.Writer, log logger.Logger) *Wizard {
	return &Wizard{
		in:     bufio.NewScanner(in),
		out:    out,
		logger: log,
		newClient: func(caps *config.Capabilities) AccountClient {
			return smapi.NewClient(caps, log)
		},
		exchangeCode: func(ctx context.Context, clientID, clientSecret, code string) (string, error) {
			return smapi.ExchangeAuthorizationCode(ctx, "", clientID, clientSecret, code)
		},
	}
}

// Run executes the wizard and persists the resulting capabilities into
// configFile, preserving any settings already stored there.
func (w *Wizard) Run(ctx context.Context, configFile string) error {
	if configFile == "" {
		configFile = config.DefaultConfigFile
	}

	fmt.Fprintln(w.out, "This wizard will guide you through the connector setup. Please follow the instructions.")
	fmt.Fprintln(w.out, hintStyle.Render("It involves copy & paste from a web browser to this terminal window."))
	fmt.Fprintln(w.out)

	clientID, clientSecret, err := w.stepSecurityProfile()
	if err != nil {
		return err
	}

	refreshToken, err := w.stepAuthorizationCode(ctx, clientID, clientSecret)
	if err != nil {
		return err
	}

	settings := map[string]interface{}{
		"ALEXA_SMAPI_CLIENTID":     clientID,
		"ALEXA_SMAPI_CLIENTSECRET": clientSecret,
		"ALEXA_SMAPI_REFRESHTOKEN": refreshToken,
	}

	if err := w.stepSelectVendorAndSkill(ctx, settings); err != nil {
		return err
	}

	if err := w.persist(configFile, settings); err != nil {
		return err
	}
	fmt.Fprintln(w.out, successStyle.Render("Done."))
	return nil
}

func (w *Wizard) stepSecurityProfile() (clientID, clientSecret string, err error) {
	fmt.Fprintln(w.out, stepStyle.Render("Step 1/3 - Create Amazon Security Profile"))
	fmt.Fprintln(w.out, " 1. Go to this url:", urlStyle.Render("https://developer.amazon.com/home.html"))
	fmt.Fprintln(w.out, ` 2. Open "Settings" / "Security Profiles" and create a new profile or select an existing one`)
	fmt.Fprintln(w.out, ` 3. Add this url to the "Allowed Return URLs":`, urlStyle.Render(smapi.LWAResponseParserURL))
	fmt.Fprintln(w.out)

	if clientID, err = w.prompt(`Copy & paste the "Client-ID" here: `); err != nil {
		return "", "", err
	}
	if clientSecret, err = w.prompt(`Copy & paste the "Client-Secret" here: `); err != nil {
		return "", "", err
	}
	return clientID, clientSecret, nil
}

func (w *Wizard) stepAuthorizationCode(ctx context.Context, clientID, clientSecret string) (string, error) {
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, stepStyle.Render("Step 2/3 - Get Amazon Authorization Code"))
	fmt.Fprintln(w.out, " 1. Paste the following url to your browser and follow the instructions:")
	fmt.Fprintln(w.out, "   ", urlStyle.Render(smapi.AuthorizeURL(clientID)))
	fmt.Fprintln(w.out)

	code, err := w.prompt("Copy & paste the authorization code you received: ")
	if err != nil {
		return "", err
	}
	refreshToken, err := w.exchangeCode(ctx, clientID, clientSecret, code)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w.out, successStyle.Render("Received refresh token."))
	return refreshToken, nil
}

func (w *Wizard) stepSelectVendorAndSkill(ctx context.Context, settings map[string]interface{}) error {
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, stepStyle.Render("Step 3/3 - Select vendor id and skill"))
	fmt.Fprintln(w.out)

	caps := &config.Capabilities{
		BaseURL:      "https://api.amazonalexa.com",
		ClientID:     settings["ALEXA_SMAPI_CLIENTID"].(string),
		ClientSecret: settings["ALEXA_SMAPI_CLIENTSECRET"].(string),
		RefreshToken: settings["ALEXA_SMAPI_REFRESHTOKEN"].(string),
	}
	client := w.newClient(caps)
	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	vendors, err := client.Vendors(ctx)
	if err != nil {
		return err
	}

	var vendorID string
	switch len(vendors) {
	case 0:
		fmt.Fprintln(w.out, "There is no vendor id for your account. Skill selection not possible, please do this manually.")
		return nil
	case 1:
		fmt.Fprintf(w.out, "Using vendor id %q (%s) for your account\n", vendors[0].ID, vendors[0].Name)
		vendorID = vendors[0].ID
	default:
		fmt.Fprintf(w.out, "Found %d vendor ids for your account\n", len(vendors))
		for i, vendor := range vendors {
			fmt.Fprintf(w.out, " %d: %q (%s)\n", i+1, vendor.ID, vendor.Name)
		}
		index, err := w.promptIndex("Enter number of vendor id to use: ", len(vendors))
		if err != nil {
			return err
		}
		vendorID = vendors[index].ID
	}

	settings["ALEXA_SMAPI_VENDORID"] = vendorID
	caps.VendorID = vendorID

	skills, err := client.ListSkills(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "\nFound %d skills for your account\n", len(skills))
	if len(skills) == 0 {
		fmt.Fprintln(w.out, "No skills found, please configure the skill id manually.")
		return nil
	}
	for i, skill := range skills {
		fmt.Fprintf(w.out, " %d: %q (%s)\n", i+1, skillDisplayName(skill), skill.SkillID)
	}
	index, err := w.promptIndex("Enter number of skill to use: ", len(skills))
	if err != nil {
		return err
	}
	settings["ALEXA_SMAPI_SKILLID"] = skills[index].SkillID
	return nil
}

// persist merges the collected settings into the config file, keeping any
// existing entries that the wizard did not touch.
func (w *Wizard) persist(configFile string, settings map[string]interface{}) error {
	existing := map[string]interface{}{}
	if data, err := os.ReadFile(configFile); err == nil {
		fmt.Fprintf(w.out, "Reading existing file %s ...\n", configFile)
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("existing config file %s is not valid JSON: %w", configFile, err)
		}
	}
	for key, value := range settings {
		existing[key] = value
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config file %s: %w", configFile, err)
	}
	fmt.Fprintf(w.out, "Wrote %s\n", configFile)
	return nil
}

// prompt asks until a non-blank answer arrives. Failing with errInputClosed
// once the input runs dry keeps the retry loops from spinning forever.
func (w *Wizard) prompt(text string) (string, error) {
	for {
		fmt.Fprint(w.out, text)
		if !w.in.Scan() {
			if err := w.in.Err(); err != nil {
				return "", err
			}
			return "", errInputClosed
		}
		answer := strings.TrimSpace(w.in.Text())
		if answer != "" {
			return answer, nil
		}
	}
}

// promptIndex asks for a 1-based selection until in range, returning the
// 0-based index.
func (w *Wizard) promptIndex(text string, count int) (int, error) {
	for {
		answer, err := w.prompt(text)
		if err != nil {
			return 0, err
		}
		index, err := strconv.Atoi(answer)
		if err == nil && index > 0 && index <= count {
			return index - 1, nil
		}
	}
}

func skillDisplayName(skill smapi.SkillSummary) string {
	for _, name := range skill.NameByLocale {
		return name
	}
	return skill.SkillID
}
