package cli

import (
	"fmt"
	"io"

	"github.com/xabinapal/skiff/internal/logging"
	"github.com/xabinapal/skiff/internal/types"
)

// terminalPresenter renders editor outcomes on the terminal.
// Size advisories are also sent as desktop notifications when enabled.
type terminalPresenter struct {
	cli    *CLI
	output *OutputWriter
}

func newPresenter(cli *CLI, format OutputFormat) *terminalPresenter {
	return &terminalPresenter{
		cli:    cli,
		output: NewOutputWriter(format, cli.stdout),
	}
}

// SizeAdvisory implements editor.Presenter.
func (p *terminalPresenter) SizeAdvisory(title, message string) {
	fmt.Fprintf(p.cli.stderr, "Warning: %s. %s\n", title, message)

	if p.cli.notifier == nil {
		return
	}
	if err := p.cli.notifier.NotifySizeAdvisory(title, message); err != nil {
		p.cli.Logger.Debug("desktop notification failed", logging.Fields{"error": err.Error()})
	}
}

// ValidationFailed implements editor.Presenter.
func (p *terminalPresenter) ValidationFailed(message string) {
	fmt.Fprintf(p.cli.stderr, "Error: %s\n", message)
}

// Saved implements editor.Presenter.
func (p *terminalPresenter) Saved(prof *types.Profile) {
	// #nosec G104 - stdout write failures are not recoverable here
	_ = p.output.Write(prof, func(w io.Writer) {
		fmt.Fprintf(w, "Profile %q saved (id %s)\n", prof.DisplayName, prof.ID)
		if ep := prof.Endpoint(); ep != "" {
			fmt.Fprintf(w, "  Server: %s\n", ep)
		} else {
			fmt.Fprintln(w, "  Server: not detected")
		}
	})
}

// Deleted implements editor.Presenter.
func (p *terminalPresenter) Deleted(id string) {
	_ = p.output.Write(map[string]string{"deleted": id}, func(w io.Writer) {
		fmt.Fprintf(w, "Profile %s deleted\n", id)
	})
}
