package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/rustyeddy/poswatch/render"
)

// DesktopSink posts an OS desktop notification via the platform's
// notification command. Bounded by the dispatcher's per-sink context.
type DesktopSink struct{}

func (s *DesktopSink) Name() string { return string(Desktop) }

func (s *DesktopSink) Notify(ctx context.Context, sum Summary) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", sum.Headline, sum.Title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", sum.Title, sum.Headline)
	default:
		return fmt.Errorf("desktop notifications unsupported on %s", runtime.GOOS)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("desktop notify: %w: %s", err, out)
	}
	return nil
}

// SoundSink plays the platform's completion sound, falling back to the
// terminal bell when no player is available.
type SoundSink struct {
	Out io.Writer // bell fallback target; defaults to stdout
}

func (s *SoundSink) Name() string { return string(Sound) }

func (s *SoundSink) Notify(ctx context.Context, _ Summary) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "afplay", "/System/Library/Sounds/Glass.aiff")
	case "linux":
		cmd = exec.CommandContext(ctx, "paplay", "/usr/share/sounds/freedesktop/stereo/complete.oga")
	}
	if cmd != nil {
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := out.Write([]byte("\a")); err != nil {
		return fmt.Errorf("sound alert: %w", err)
	}
	return nil
}

// PopupSink opens a detail window via the platform dialog command. The
// dialog is fire-and-forget: the process is started and left to its own
// lifecycle so a window awaiting dismissal never stalls polling.
type PopupSink struct{}

func (s *PopupSink) Name() string { return string(Popup) }

func (s *PopupSink) Notify(ctx context.Context, sum Summary) error {
	body := sum.Headline + "\n\n" + render.Details(sum.Entries)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display dialog %q with title %q buttons {\"Close\"}", body, sum.Title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("zenity", "--info", "--title", sum.Title, "--text", body)
	default:
		return fmt.Errorf("popup unsupported on %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("popup: %w", err)
	}
	// Reap in the background; dismissal time is the user's business.
	go func() { _ = cmd.Wait() }()
	return nil
}

// TableSink prints the full colored position table to the terminal stream.
type TableSink struct {
	Out io.Writer
}

func (s *TableSink) Name() string { return string(Table) }

func (s *TableSink) Notify(_ context.Context, sum Summary) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	table := render.Table(sum.Entries, true)
	if table == "" {
		table = "(no positions parsed)\n"
	}
	_, err := fmt.Fprintf(out, "\n⚡ %s — %s\n\n%s\n", sum.Title, sum.Headline, table)
	if err != nil {
		return fmt.Errorf("table sink: %w", err)
	}
	return nil
}
