package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xabinapal/skiff/internal/config"
	"github.com/xabinapal/skiff/internal/editor"
	"github.com/xabinapal/skiff/internal/parser"
	"github.com/xabinapal/skiff/internal/profile"
	"github.com/xabinapal/skiff/internal/store"
	"github.com/xabinapal/skiff/internal/utils"
)

// ProfileListOutput represents profile list output for JSON.
type ProfileListOutput struct {
	Selected string         `json:"selected,omitempty"`
	Profiles []profile.Info `json:"profiles"`
}

// ProfileShowOutput represents profile show output for JSON.
type ProfileShowOutput struct {
	*profile.Status
	Locked bool `json:"locked"`
}

// newProfileCmd creates the profile command group.
func (cli *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage custom tunnel profiles",
		Long: `Manage custom tunnel profiles.

A custom profile is a raw V2Ray/Xray or sing-box JSON configuration stored
verbatim. The display name and the first proxy server are extracted from it
on every save.

Examples:
  # Import a configuration as a new profile
  skiff profile import ./config.json --name "Home"

  # Edit a profile in $EDITOR
  skiff profile edit 5f0c...

  # Replace a profile's configuration from stdin
  cat new.json | skiff profile edit 5f0c... --file -

  # Select the profile used by the tunnel
  skiff profile use 5f0c...`,
	}

	cmd.AddCommand(
		cli.newProfileListCmd(),
		cli.newProfileShowCmd(),
		cli.newProfileEditCmd(),
		cli.newProfileImportCmd(),
		cli.newProfileDeleteCmd(),
		cli.newProfileUseCmd(),
	)

	return cmd
}

// completeProfileIDs offers stored profile ids for shell completion.
func (cli *CLI) completeProfileIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if cli.Config == nil {
		if err := cli.initialize(cmd); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
	m, err := cli.manager()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	list, err := m.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID+"\t"+p.Name)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// newProfileListCmd creates the profile list command.
func (cli *CLI) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all stored profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runProfileList(format)
		},
	}
}

// runProfileList displays all stored profiles.
func (cli *CLI) runProfileList(format OutputFormat) error {
	m, err := cli.manager()
	if err != nil {
		return err
	}
	profiles, err := m.List()
	if err != nil {
		return err
	}

	out := ProfileListOutput{Profiles: profiles}
	for _, p := range profiles {
		if p.Selected {
			out.Selected = p.ID
		}
	}

	output := NewOutputWriter(format, cli.stdout)
	if len(profiles) == 0 {
		return output.Write(out, func(w io.Writer) {
			fmt.Fprintln(w, "No profiles stored.")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Import one with: skiff profile import <file> --name <name>")
		})
	}

	return output.Write(out, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tKIND\tSERVER")
		for _, p := range profiles {
			marker := ""
			if p.Selected {
				marker = "* "
			}
			server := p.Endpoint
			if server == "" {
				server = "-"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", marker, p.ID, p.Name, p.Kind, server)
		}
		// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
		_ = tw.Flush()

		if out.Selected != "" {
			fmt.Fprintf(w, "\n* = selected profile\n")
		}
	})
}

// newProfileShowCmd creates the profile show command.
func (cli *CLI) newProfileShowCmd() *cobra.Command {
	var (
		raw     bool
		running bool
	)

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show a stored profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfileIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			if raw {
				return cli.runProfileShowRaw(args[0])
			}
			return cli.runProfileShow(format, args[0], running)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the raw configuration text")
	cmd.Flags().BoolVar(&running, "running", false, "Assume the tunnel is running when reporting the lock")

	return cmd
}

func (cli *CLI) runProfileShow(format OutputFormat, id string, running bool) error {
	m, err := cli.manager()
	if err != nil {
		return err
	}
	status, err := m.Status(id)
	if err != nil {
		return notFound(id, err)
	}

	out := ProfileShowOutput{
		Status: status,
		Locked: cli.guard().IsLocked(id, running),
	}

	return NewOutputWriter(format, cli.stdout).Write(out, func(w io.Writer) {
		fmt.Fprintf(w, "Profile: %s\n", status.Name)
		fmt.Fprintf(w, "  ID:       %s\n", status.ID)
		fmt.Fprintf(w, "  Kind:     %s\n", status.Kind)
		if status.Host != "" {
			fmt.Fprintf(w, "  Host:     %s\n", status.Host)
		}
		if status.Port != 0 {
			fmt.Fprintf(w, "  Port:     %d\n", status.Port)
		}
		size := status.Size
		if status.Large {
			size += " (large)"
		}
		fmt.Fprintf(w, "  Size:     %s\n", size)
		fmt.Fprintf(w, "  Selected: %s\n", yesNo(status.Selected))
		fmt.Fprintf(w, "  Locked:   %s\n", yesNo(out.Locked))
		if !status.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "  Updated:  %s\n", status.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
	})
}

func (cli *CLI) runProfileShowRaw(id string) error {
	st, err := cli.Store()
	if err != nil {
		return err
	}
	raw, err := st.GetRaw(id)
	if err != nil {
		return notFound(id, err)
	}
	_, err = io.WriteString(cli.stdout, raw)
	return err
}

// newProfileEditCmd creates the profile edit command.
func (cli *CLI) newProfileEditCmd() *cobra.Command {
	var (
		file    string
		name    string
		running bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a profile's configuration",
		Long: `Edit the raw configuration of a profile and save it.

Without --file the current configuration is opened in $EDITOR. With --file
the configuration is replaced by the file contents, or by stdin for "-".

The configuration is validated before saving; an invalid configuration is
rejected and the stored profile is left untouched. The profile selected for
the running tunnel cannot be edited.

Examples:
  # Edit in $EDITOR
  skiff profile edit 5f0c...

  # Rename without touching the configuration
  skiff profile show 5f0c... --raw | skiff profile edit 5f0c... --file - --name "Office"`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfileIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runProfileEdit(cmd.Context(), format, args[0], file, name, running)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the configuration from a file (- for stdin)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Set the display name")
	cmd.Flags().BoolVar(&running, "running", false, "The tunnel is running; the selected profile is locked")

	return cmd
}

func (cli *CLI) runProfileEdit(ctx context.Context, format OutputFormat, id, file, name string, running bool) error {
	if !utils.IsValidProfileID(id) {
		return fmt.Errorf("invalid profile id %q", id)
	}

	svc, err := cli.editorService(format)
	if err != nil {
		return err
	}
	sess, err := svc.Begin(id, running)
	if err != nil {
		return err
	}
	if sess.State() == editor.StateNew {
		return fmt.Errorf("profile %q not found", id)
	}
	if err := sess.CheckSave(); err != nil {
		return reported(err)
	}

	var raw string
	if file != "" {
		raw, err = cli.readInput(file)
		if err != nil {
			return err
		}
	} else {
		var changed bool
		raw, changed, err = cli.editInEditor(ctx, sess.Raw())
		if err != nil {
			return err
		}
		if !changed && strings.TrimSpace(name) == "" {
			fmt.Fprintln(cli.stdout, "No changes.")
			return nil
		}
	}

	_, err = sess.Save(name, raw)
	return reported(err)
}

// newProfileImportCmd creates the profile import command.
func (cli *CLI) newProfileImportCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a configuration as a new profile",
		Long: `Import a raw configuration file as a new custom profile.

Use "-" to read from stdin. Without --name the "remarks" or "name" field of
the configuration is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runProfileImport(format, args[0], name)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")

	return cmd
}

func (cli *CLI) runProfileImport(format OutputFormat, file, name string) error {
	raw, err := cli.readInput(file)
	if err != nil {
		return err
	}

	// A new profile has no persisted name to fall back on, so take the hint here
	if strings.TrimSpace(name) == "" {
		parsed, err := parser.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", editor.ErrParse, err)
		}
		name = parsed.DisplayName
	}

	svc, err := cli.editorService(format)
	if err != nil {
		return err
	}
	sess, err := svc.Begin("", false)
	if err != nil {
		return err
	}
	_, err = sess.Save(name, raw)
	return reported(err)
}

// newProfileDeleteCmd creates the profile delete command.
func (cli *CLI) newProfileDeleteCmd() *cobra.Command {
	var (
		force   bool
		running bool
	)

	cmd := &cobra.Command{
		Use:               "delete <id>",
		Aliases:           []string{"rm", "remove"},
		Short:             "Delete a stored profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfileIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runProfileDelete(format, args[0], force, running)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete without asking for confirmation")
	cmd.Flags().BoolVar(&running, "running", false, "The tunnel is running; the selected profile is locked")

	return cmd
}

func (cli *CLI) runProfileDelete(format OutputFormat, id string, force, running bool) error {
	if !utils.IsValidProfileID(id) {
		return fmt.Errorf("invalid profile id %q", id)
	}

	svc, err := cli.editorService(format)
	if err != nil {
		return err
	}
	sess, err := svc.Begin(id, running)
	if err != nil {
		return err
	}
	if sess.State() == editor.StateNew {
		return fmt.Errorf("profile %q not found", id)
	}

	if sess.CanDelete() && !force {
		ok, err := cli.confirm(fmt.Sprintf("Delete profile %q?", sess.Profile().DisplayName))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cli.stdout, "Cancelled.")
			return nil
		}
	}

	return reported(sess.Delete())
}

// newProfileUseCmd creates the profile use command.
func (cli *CLI) newProfileUseCmd() *cobra.Command {
	var clearSelection bool

	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Select the profile used by the tunnel",
		Long: `Select the profile used by the tunnel runtime.

The selected profile is locked against edits and deletion while the tunnel is
running. Use --clear to remove the selection.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearSelection {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		ValidArgsFunction: cli.completeProfileIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := cli.manager()
			if err != nil {
				return err
			}
			if clearSelection {
				if err := m.Unselect(); err != nil {
					return err
				}
				fmt.Fprintln(cli.stdout, "Selection cleared")
				return nil
			}
			if err := m.Select(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cli.stdout, "Selected profile %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearSelection, "clear", false, "Clear the selection")

	return cmd
}

// readInput reads a file, or stdin for "-".
func (cli *CLI) readInput(file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(cli.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	// #nosec G304 - file is supplied by the user on the command line
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

// findEditor resolves the user's editor command.
func findEditor() ([]string, error) {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields, nil
		}
	}
	for _, e := range []string{"vim", "vi", "nano", "notepad"} {
		if _, err := exec.LookPath(e); err == nil {
			return []string{e}, nil
		}
	}
	return nil, errors.New("no editor found: set $EDITOR environment variable")
}

// editInEditor opens text in the user's editor and returns the result.
func (cli *CLI) editInEditor(ctx context.Context, text string) (string, bool, error) {
	editorCmd, err := findEditor()
	if err != nil {
		return "", false, err
	}

	paths := config.GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return "", false, fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(paths.CacheDir, "profile-*.json")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return "", false, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("failed to write temp file: %w", err)
	}

	args := append(editorCmd[1:], path)
	// #nosec G204 - editor is from $EDITOR (user-controlled but expected), path is a temp file we created
	c := exec.CommandContext(ctx, editorCmd[0], args...)
	c.Stdin = cli.stdin
	c.Stdout = cli.stdout
	c.Stderr = cli.stderr
	if err := c.Run(); err != nil {
		return "", false, fmt.Errorf("editor failed: %w", err)
	}

	// #nosec G304 - path is the temp file created above
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", false, fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(data), string(data) != text, nil
}

// notFound turns a missing entry into a user-facing error.
func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("profile %q not found", id)
	}
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
