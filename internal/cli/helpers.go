package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tutu-network/coinquest/internal/daemon"
	"github.com/tutu-network/coinquest/internal/domain"
)

// loadTimeout bounds the profile load for one-shot commands.
const loadTimeout = 15 * time.Second

// openDaemon builds the daemon and waits for the stored profile. Callers
// must Close it so pending writes are flushed.
func openDaemon() (*daemon.Daemon, error) {
	d, err := daemon.New()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := d.Start(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return d, nil
}

// parseMeta turns key=value arguments into event metadata. "true", "false"
// and numbers are typed; everything else stays a string.
func parseMeta(args []string) (domain.Metadata, error) {
	meta := domain.Metadata{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q (want key=value)", arg)
		}
		switch value {
		case "true":
			meta[key] = true
			continue
		case "false":
			meta[key] = false
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			meta[key] = f
			continue
		}
		meta[key] = value
	}
	return meta, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// untilString renders the time left before a deadline.
func untilString(deadline, now time.Time) string {
	d := deadline.Sub(now)
	switch {
	case d <= 0:
		return "expired"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
