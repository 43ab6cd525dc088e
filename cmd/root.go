package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/bnema/kloakd/internal/config"
	"github.com/bnema/kloakd/internal/engine"
	"github.com/bnema/kloakd/internal/errs"
	"github.com/bnema/kloakd/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set during build.
var Version = "0.1.0-dev"

var (
	flagDelay      int
	flagStartDelay int
	flagColor      string
	flagComboSpec  string
	flagLogLevel   string
	flagInputDir   string
)

var rootCmd = &cobra.Command{
	Use:   "kloakd",
	Short: "kloakd - real-time input-event anonymization for Wayland",
	Long: `kloakd captures every physical keyboard, mouse, touchpad, and scroll
event from the kernel's evdev layer, buffers each event, introduces an
independently sampled random release delay, and replays the event to
the Wayland compositor through virtual-input protocols. It defeats
keystroke-dynamics and mouse-dynamics biometrics while preserving
interactive usability.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.Flags()
	flags.IntVarP(&flagDelay, "delay", "d", 100, "maximum additional delay per event, in milliseconds")
	flags.IntVarP(&flagStartDelay, "start-delay", "s", 500, "pre-init sleep before grabbing devices, in milliseconds")
	flags.StringVarP(&flagColor, "color", "c", "FFFF0000", "overlay cursor color, 8 hex digits (AARRGGBB)")
	flags.StringVarP(&flagComboSpec, "esc-key-combo", "k", config.DefaultComboSpec, "escape combo: comma-separated slots, pipe-separated aliases")
	flags.StringVar(&flagLogLevel, "log-level", "", "log verbosity: debug, info, warn, error (default info, or $LOG_LEVEL)")
	flags.StringVar(&flagInputDir, "input-dir", "/dev/input", "directory to watch for evdev device nodes")
}

func run(cmd *cobra.Command, args []string) error {
	if flagLogLevel != "" {
		logger.SetLevel(flagLogLevel)
	}

	if err := config.ValidateDelay(int64(flagDelay)); err != nil {
		return exitError("%v", err)
	}
	if err := config.ValidateDelay(int64(flagStartDelay)); err != nil {
		return exitError("%v", err)
	}
	color, err := config.ParseColor(flagColor)
	if err != nil {
		return exitError("%v", err)
	}
	slots, err := config.ParseComboSpec(flagComboSpec)
	if err != nil {
		return exitError("%v", err)
	}

	e, err := engine.New(engine.Options{
		MaxDelayMS:   int64(flagDelay),
		StartDelayMS: int64(flagStartDelay),
		Color:        color,
		ComboSlots:   slots,
		InputDir:     flagInputDir,
	})
	if err != nil {
		return fatalize(err)
	}
	defer e.Close()

	if err := e.Run(); err != nil {
		return fatalize(err)
	}
	return nil
}

// fatalize prints the required "FATAL ERROR:" line for Fatal-tier
// errors and exits 1; Warning and Recoverable tiers should never
// escape Run, so any other error is treated as fatal defensively.
func fatalize(err error) error {
	var c *errs.Classified
	if errors.As(err, &c) && c.Tier != errs.TierFatal {
		logger.Warn(c.Error())
		return nil
	}
	logger.Fatal(err)
	return err
}

// exitError reports an invalid flag value as a fatal error (a stderr
// line beginning "FATAL ERROR:", §7) and exits 1, matching
// cmd/root.go's exitError shape.
func exitError(format string, args ...interface{}) error {
	fmt.Fprintf(os.Stderr, "FATAL ERROR: "+format+"\n", args...)
	os.Exit(1)
	return nil
}
