package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xabinapal/skiff/internal/config"
	"github.com/xabinapal/skiff/internal/store"
)

// configPathOutput represents config path output for JSON.
type configPathOutput struct {
	ConfigFile   string `json:"config_file"`
	ConfigDir    string `json:"config_dir"`
	DataDir      string `json:"data_dir"`
	CacheDir     string `json:"cache_dir"`
	StoreDir     string `json:"store_dir"`
	ConfigExists bool   `json:"config_exists"`
}

// validationResult represents validation output for JSON.
type validationResult struct {
	Valid          bool     `json:"valid"`
	ConfigFile     string   `json:"config_file"`
	Backend        string   `json:"backend"`
	StoreAvailable bool     `json:"store_available"`
	Errors         []string `json:"errors,omitempty"`
}

// errInvalidConfig is returned by 'config validate' after the problems were printed.
var errInvalidConfig = errors.New("configuration is invalid")

// newConfigCmd creates the config command group.
func (cli *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect skiff configuration",
		Long: `Inspect skiff configuration files and settings.

Use 'skiff config path' to see configuration file locations.
Use 'skiff config validate' to check the configuration and the profile store.`,
	}

	cmd.AddCommand(
		cli.newConfigPathCmd(),
		cli.newConfigValidateCmd(),
	)

	return cmd
}

// newConfigPathCmd creates the config path command.
func (cli *CLI) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}

			paths := config.GetPaths()
			configFile := cli.Config.FilePath()

			_, configErr := os.Stat(configFile)
			output := configPathOutput{
				ConfigFile:   configFile,
				ConfigDir:    paths.ConfigDir,
				DataDir:      paths.DataDir,
				CacheDir:     paths.CacheDir,
				StoreDir:     cli.Config.StoreDir(),
				ConfigExists: configErr == nil,
			}

			return NewOutputWriter(format, cli.stdout).Write(output, func(w io.Writer) {
				fmt.Fprintln(w, "Configuration paths:")
				fmt.Fprintf(w, "  Config file:  %s\n", output.ConfigFile)
				fmt.Fprintf(w, "  Config dir:   %s\n", output.ConfigDir)
				fmt.Fprintf(w, "  Data dir:     %s\n", output.DataDir)
				fmt.Fprintf(w, "  Cache dir:    %s\n", output.CacheDir)
				fmt.Fprintf(w, "  Store dir:    %s\n", output.StoreDir)

				fmt.Fprintln(w, "\nStatus:")
				if output.ConfigExists {
					fmt.Fprintln(w, "  Config file exists")
				} else {
					fmt.Fprintln(w, "  Config file does not exist (defaults in use)")
				}
			})
		},
	}
}

// newConfigValidateCmd creates the config validate command.
func (cli *CLI) newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and profile store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}

			result := cli.validate()
			if err := NewOutputWriter(format, cli.stdout).Write(result, func(w io.Writer) {
				fmt.Fprintf(w, "Config file: %s\n", result.ConfigFile)
				fmt.Fprintf(w, "Backend:     %s\n", result.Backend)
				fmt.Fprintf(w, "Store:       %s\n", availability(result.StoreAvailable))
				if result.Valid {
					fmt.Fprintln(w, "\nConfiguration is valid")
					return
				}
				fmt.Fprintln(w, "\nProblems:")
				for _, e := range result.Errors {
					fmt.Fprintf(w, "  - %s\n", e)
				}
			}); err != nil {
				return err
			}

			if !result.Valid {
				return &reportedError{err: errInvalidConfig}
			}
			return nil
		},
	}
}

func (cli *CLI) validate() validationResult {
	cfg := cli.Config
	result := validationResult{
		ConfigFile: cfg.FilePath(),
		Backend:    string(cfg.Store.Backend),
	}

	if err := cfg.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	if st, err := store.New(cfg); err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else if err := st.IsAvailable(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		result.StoreAvailable = true
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
