package ports

import "time"

type Policy struct {
	// SettleTime is the pause allowed after each move before acquisition.
	SettleTime time.Duration
	// PollInterval paces the teardown wait for positioners to stop moving.
	PollInterval time.Duration
	// TeardownTimeout bounds the teardown wait. Zero means no bound; a
	// stall past the bound is reported instead of looping forever.
	TeardownTimeout time.Duration
}
