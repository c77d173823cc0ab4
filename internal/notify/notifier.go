// Package notify delivers new-ticket alerts to staff channels.
package notify

import (
	"context"
	"errors"

	"github.com/example/assetdesk/internal/config"
)

// RepairNotice is the information staff need to react to a new ticket.
type RepairNotice struct {
	TicketID           uint
	AssetNumber        string
	AssetName          string
	ProblemDescription string
	ReporterName       string
	ReporterLocation   string
	ReporterContact    string
}

// Notifier delivers a notice to one channel.
type Notifier interface {
	Notify(ctx context.Context, notice RepairNotice) error
}

// Multi fans a notice out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notice RepairNotice) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notices.
type Nop struct{}

func (Nop) Notify(context.Context, RepairNotice) error { return nil }

// FromConfig returns the enabled channels, or Nop when none is configured.
func FromConfig(tg config.TelegramConfig, mail config.EmailConfig) Notifier {
	var channels Multi
	if tg.Enabled() {
		channels = append(channels, NewTelegramNotifier(tg))
	}
	if mail.Enabled() {
		channels = append(channels, NewEmailNotifier(mail))
	}
	if len(channels) == 0 {
		return Nop{}
	}
	return channels
}
