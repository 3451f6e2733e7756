package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/photonworks/ScanFlow/internal/ports"
)

// Absolute returns the hook table for a plain absolute-coordinate scan:
// the only variant behavior is the pre-scan announcement.
func Absolute(notifier ports.Notifier) Hooks {
	return Hooks{
		PreScan: announce(notifier),
	}
}

// announce posts a human-readable start message to the notifier. A failing
// notifier is logged and ignored; it never blocks a scan from starting.
func announce(notifier ports.Notifier) Hook {
	return func(s *Scan) error {
		if notifier == nil {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Scan started at %s\n\n===\n", time.Now().Format(time.RFC1123))
		for _, p := range s.Positioners() {
			fmt.Fprintf(&b, "positioner: %s\n", p.Name())
		}

		if err := notifier.Post(b.String()); err != nil {
			s.obs.LogError("scan_notify_failed", err)
		}
		return nil
	}
}
