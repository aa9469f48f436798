package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"

	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/version"
)

// App is the main structure of a cli application.
type App struct {
	basename    string
	name        string
	description string
	options     NamedFlagSetOptions
	logOptions  *log.Options
	runFunc     RunFunc
	silence     bool
	noConfig    bool
	args        cobra.PositionalArgs
	commands    []*cobra.Command
	cmd         *cobra.Command
}

// RunFunc defines the application's startup callback function.
type RunFunc func() error

// Option defines optional parameters for initializing the application structure.
type Option func(*App)

// WithOptions to open the application's function to read from the command line
// or read parameters from the configuration file.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithLogOptions initializes the global logger from opts before RunFunc is called.
func WithLogOptions(opts *log.Options) Option {
	return func(a *App) {
		a.logOptions = opts
	}
}

// WithRunFunc is used to set the application startup callback function option.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithSilence sets the application to silent mode, in which the program startup
// information, configuration information, and version information are not printed.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoConfig set the application does not provide config flag.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithValidArgs set the validation function to valid non-flag arguments.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithDefaultValidArgs set default validation function to valid non-flag arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands adds sub-commands, e.g. one-shot operations next to the long-running server.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// NewApp creates a new application instance based on the given application name,
// binary name, and other options.
func NewApp(name string, short string, opts ...Option) *App {
	a := &App{
		name:     name,
		basename: short,
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()

	return a
}

// Command returns the cobra command behind the application.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:   FormatBaseName(a.name),
		Short: a.basename,
		Long:  a.description,
		// stop printing usage when the command errors
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	if len(a.commands) > 0 {
		cmd.AddCommand(a.commands...)
	}

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
		fs := cmd.Flags()
		for _, f := range namedFlagSets.FlagSets {
			fs.AddFlagSet(f)
		}
	}

	version.AddFlags(namedFlagSets.FlagSet("global"))
	if !a.noConfig {
		addConfigFlag(a.name, namedFlagSets.FlagSet("global"))
	}
	namedFlagSets.FlagSet("global").BoolP("help", "h", false, fmt.Sprintf("help for %s", cmd.Name()))
	cmd.Flags().AddFlagSet(namedFlagSets.FlagSet("global"))

	// Sub-commands read the same configuration as the root command.
	for _, sub := range a.commands {
		for _, f := range namedFlagSets.FlagSets {
			sub.Flags().AddFlagSet(f)
		}
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	a.cmd = cmd
}

// Run is used to launch the application.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v %v\n", "Error:", err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	version.PrintAndExitIfRequested()

	if a.options != nil {
		if err := LoadOptions(cmd, a.options); err != nil {
			return err
		}
	}

	if a.logOptions != nil {
		log.Init(a.logOptions)
		defer func() { _ = log.Sync() }()
	}

	if !a.silence {
		log.Info("Starting application", "name", a.name, "version", version.Get().String(), "go", runtime.Version())
		if cfg := viper.ConfigFileUsed(); cfg != "" {
			log.Info("Config file used", "file", cfg)
		}
	}

	return a.runFunc()
}

// BindOptions decodes parsed flags, the configuration file and the environment into opts.
func BindOptions(cmd *cobra.Command, opts any) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// LoadOptions binds opts like BindOptions, then completes and validates them.
// Sub-commands call it from their own RunE.
func LoadOptions(cmd *cobra.Command, opts NamedFlagSetOptions) error {
	if err := BindOptions(cmd, opts); err != nil {
		return err
	}
	if err := opts.Complete(); err != nil {
		return err
	}
	return opts.Validate()
}

// FormatBaseName is formatted as an executable file name under different
// operating systems according to the given name.
func FormatBaseName(name string) string {
	// Make case-insensitive and strip executable suffix if present
	if runtime.GOOS == "windows" {
		name = strings.ToLower(name)
		name = strings.TrimSuffix(name, ".exe")
	}
	return filepath.Base(name)
}
