package ports

// Notifier receives human-readable scan announcements (electronic logbook,
// chat sink, plain log). A failing notifier must never abort a scan; the
// lifecycle logs the error and moves on.
type Notifier interface {
	Post(msg string) error
}
