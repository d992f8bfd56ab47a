package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexion-ai/mcpcli/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Asks for the Claude and Gemini API keys and models and saves them to the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), path)
		},
	}
}

// initSection describes one provider block the wizard fills in.
type initSection struct {
	key      string // config section
	label    string
	provider string // provider type written to the file
	envHint  string
}

var initSections = []initSection{
	{key: "claude", label: "Claude", provider: config.ProviderAnthropic, envHint: "CLAUDE_API_KEY"},
	{key: "gemini", label: "Gemini", provider: config.ProviderGenAI, envHint: "GEMINI_API_KEY"},
}

func runInit(in io.Reader, out io.Writer, cfgPath string) error {
	if cfgPath == "" {
		return fmt.Errorf("cannot determine config path; pass --config")
	}
	reader := bufio.NewReader(in)
	ask := func(prompt string) string {
		fmt.Fprint(out, prompt)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	fmt.Fprintln(out, "Welcome to the mcpcli configuration wizard!")
	fmt.Fprintln(out)

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", cfgPath)
		if answer := ask("Update it? [y/N]: "); strings.ToLower(answer) != "y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	saved := 0
	for _, s := range initSections {
		apiKey := ask(fmt.Sprintf("%s API key (empty to skip, or set %s later): ", s.label, s.envHint))
		if apiKey == "" {
			fmt.Fprintf(out, "Skipped %s.\n\n", s.label)
			continue
		}
		def := config.KnownProviderModels[s.provider]
		model := ask(fmt.Sprintf("%s model [%s]: ", s.label, def))

		pc := config.ProviderConfig{Type: s.provider, APIKey: apiKey, Model: model}
		if err := config.SaveProviderToFile(cfgPath, s.key, pc); err != nil {
			return fmt.Errorf("save %s settings: %w", s.key, err)
		}
		saved++
		fmt.Fprintln(out)
	}

	if saved == 0 {
		fmt.Fprintln(out, "Nothing to save.")
		return nil
	}
	fmt.Fprintf(out, "Config saved to %s\n", cfgPath)
	fmt.Fprintln(out, "You can now run: mcpcli")
	return nil
}
