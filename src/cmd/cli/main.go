package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"selection-translate/src/config"
	"selection-translate/src/logutil"
	"selection-translate/src/runtimeinit"
)

const maxInputBytes = 1 << 20

type cliOptions struct {
	envPath     string
	profilePath string
	mode        string
	model       string
	jsonOutput  bool
	verbose     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout)
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"translate-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, stdin, stdout)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "translate-tool",
		Short:         "Translate text and manage local models without the desktop app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envPath, "env", "", "Path to .env file")
	root.PersistentFlags().StringVar(&opts.profilePath, "profile", "", "Path to the profile file (API key, base URL, prompt)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	translate := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text given as arguments or read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, stdin)
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), *opts, text, stdout)
		},
	}
	translate.Flags().StringVar(&opts.mode, "mode", "local", "Backend: local or hosted")
	translate.Flags().StringVar(&opts.model, "model", "", "Model name (defaults to the backend's default model)")
	translate.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	models := &cobra.Command{
		Use:   "models",
		Short: "List models installed on the local model server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), *opts, stdout)
		},
	}

	pull := &cobra.Command{
		Use:   "pull <model>",
		Short: "Download a model to the local model server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context(), *opts, args[0], stdout)
		},
	}

	root.AddCommand(translate, models, pull)
	return root
}

func bootstrap(ctx context.Context, opts cliOptions) (*runtimeinit.Runtime, error) {
	rtOpts := runtimeinit.Options{
		LoadOptions: config.LoadOptions{EnvPathOverride: opts.envPath, ProfilePathOverride: opts.profilePath},
	}
	// zap's global logger is a no-op until Setup runs, which keeps stderr quiet by default.
	if opts.verbose {
		rtOpts.SetupLogging = func(bool) func() { return logutil.Setup(false) }
	}
	return runtimeinit.Bootstrap(ctx, rtOpts)
}

// resolveSettings applies --mode and --model on top of the loaded profile.
func resolveSettings(base config.Settings, cfg *config.Config, mode, model string) (config.Settings, error) {
	m, err := config.ParseMode(mode)
	if err != nil {
		return base, err
	}
	s := base
	s.Mode = m
	switch {
	case strings.TrimSpace(model) != "":
		s.Model = strings.TrimSpace(model)
	case m == config.ModeLocal && cfg != nil && cfg.DefaultModel != "":
		s.Model = cfg.DefaultModel
	default:
		s.Model = config.DefaultModel(m)
	}
	return s, nil
}

func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("input exceeds maximum size of %d bytes", maxInputBytes)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text to translate")
	}
	return text, nil
}

func runTranslate(ctx context.Context, opts cliOptions, text string, stdout io.Writer) error {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	settings, err := resolveSettings(rt.Settings, rt.Config, opts.mode, opts.model)
	if err != nil {
		return err
	}
	zap.S().Infof("cli: translating %d chars with %s/%s", len(text), settings.Mode, settings.Model)

	startTime := time.Now()
	translated, err := rt.Backend.Translate(ctx, text, settings)
	elapsed := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	zap.S().Infof("cli: translation completed in %v", elapsed)

	return outputResult(stdout, TranslationResult{
		Original:   text,
		Translated: translated,
		Mode:       settings.Mode.String(),
		Model:      settings.Model,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Duration:   elapsed.Seconds(),
	}, opts.jsonOutput)
}

type TranslationResult struct {
	Original   string  `json:"original"`
	Translated string  `json:"translated"`
	Mode       string  `json:"mode"`
	Model      string  `json:"model"`
	Timestamp  string  `json:"timestamp"`
	Duration   float64 `json:"duration_seconds"`
}

func outputResult(w io.Writer, result TranslationResult, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintln(w, result.Translated)
	return err
}

func runModels(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	names, err := rt.Models.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func runPull(ctx context.Context, opts cliOptions, model string, stdout io.Writer) error {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if ok, err := rt.Models.Available(ctx, model); err == nil && ok {
		fmt.Fprintf(stdout, "%s is already installed\n", model)
		return nil
	}
	if err := rt.Models.Pull(ctx, model); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "pulled %s\n", model)
	return nil
}

// normalizeLegacyArgs accepts single-dash long flags (-mode local) as well as
// the GNU form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"mode", "model", "json", "verbose", "env", "profile"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
