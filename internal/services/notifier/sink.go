package notifier

import (
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
)

// BeeepSink shows notifications on the desktop. Critical alerts also play the
// system alert sound.
type BeeepSink struct{}

// Notify implements Sink.
func (BeeepSink) Notify(n models.Notification) error {
	if n.Urgency == models.UrgencyCritical {
		return beeep.Alert(n.Title, n.Body, "")
	}
	return beeep.Notify(n.Title, n.Body, "")
}

// LogSink records notifications in the log instead of showing them; used
// when running headless.
type LogSink struct{}

// Notify implements Sink.
func (LogSink) Notify(n models.Notification) error {
	logger.Info("notification", "title", n.Title, "body", n.Body, "urgency", n.Urgency.String())
	return nil
}
