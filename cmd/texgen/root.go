package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/texgen"
)

// cli holds state shared by all commands.
type cli struct {
	v          *viper.Viper
	configFile string
	backend    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:          "texgen",
		Short:        "Generate PBR texture maps from a photo",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.verbose {
				texgen.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			return c.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "parameter file (yaml, json or toml)")
	flags.StringVar(&c.backend, "backend", "", "device backend (default: best available)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log pipeline diagnostics to stderr")

	root.AddCommand(newGenerateCmd(c), newSchemaCmd(), newBackendsCmd())
	return root
}

// loadConfig reads the parameter file, if any, and enables TEXGEN_*
// environment overrides.
func (c *cli) loadConfig() error {
	c.v.SetEnvPrefix("TEXGEN")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	if c.configFile == "" {
		return nil
	}
	c.v.SetConfigFile(c.configFile)
	return c.v.ReadInConfig()
}
