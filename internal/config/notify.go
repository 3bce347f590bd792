package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// SchedulerConfig controls how assignment reminders are queued.
type SchedulerConfig struct {
	// SendTime is the HH:MM time of day queued reminders go out.
	SendTime string `env:"AWE_REMINDER_SEND_TIME" default:"09:00"`
}

// Validate validates the scheduler configuration.
func (c *SchedulerConfig) Validate() error {
	if _, err := domain.ParseClockTime(c.SendTime); err != nil {
		return fmt.Errorf("AWE_REMINDER_SEND_TIME: %w", err)
	}
	return nil
}

// ClockTime returns SendTime parsed. Call after Validate.
func (c *SchedulerConfig) ClockTime() domain.ClockTime {
	t, err := domain.ParseClockTime(c.SendTime)
	if err != nil {
		return domain.DefaultSendTime
	}
	return t
}

// DispatcherConfig controls the reminder dispatcher. Zero values use the
// dispatcher defaults.
type DispatcherConfig struct {
	// InProcess runs the dispatcher inside the server and exposes its
	// control endpoints. Leave it off when a worker binary runs.
	InProcess bool `env:"AWE_DISPATCHER_IN_PROCESS"`

	PollInterval     time.Duration `env:"AWE_DISPATCHER_POLL_INTERVAL"`
	OperationTimeout time.Duration `env:"AWE_DISPATCHER_OPERATION_TIMEOUT"`
	BatchSize        int           `env:"AWE_DISPATCHER_BATCH_SIZE"`
}

// Validate validates the dispatcher configuration.
func (c *DispatcherConfig) Validate() error {
	if c.PollInterval < 0 || c.OperationTimeout < 0 || c.BatchSize < 0 {
		return errors.New("AWE_DISPATCHER_* values must not be negative")
	}
	return nil
}

// MailConfig is the SMTP relay. Mail is logged instead of sent when Host is empty.
type MailConfig struct {
	Host     string        `env:"AWE_SMTP_HOST"`
	Port     int           `env:"AWE_SMTP_PORT" default:"587"`
	Username string        `env:"AWE_SMTP_USERNAME"`
	Password string        `env:"AWE_SMTP_PASSWORD"`
	From     string        `env:"AWE_MAIL_FROM"`
	Timeout  time.Duration `env:"AWE_SMTP_TIMEOUT" default:"30s"`
}

// Enabled reports whether a relay is configured.
func (c *MailConfig) Enabled() bool {
	return c.Host != ""
}

// Validate validates the mail configuration.
func (c *MailConfig) Validate() error {
	if c.Enabled() && c.From == "" {
		return errors.New("AWE_MAIL_FROM is required when AWE_SMTP_HOST is set")
	}
	return nil
}

// CalendarConfig enables Google Calendar events for new tasks.
type CalendarConfig struct {
	CredentialsFile string `env:"AWE_GCAL_CREDENTIALS_FILE"`
	TokenFile       string `env:"AWE_GCAL_TOKEN_FILE"`
	CalendarID      string `env:"AWE_GCAL_CALENDAR_ID" default:"primary"`
}

// Enabled reports whether calendar booking is configured.
func (c *CalendarConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

// Validate validates the calendar configuration.
func (c *CalendarConfig) Validate() error {
	if (c.CredentialsFile == "") != (c.TokenFile == "") {
		return errors.New("AWE_GCAL_CREDENTIALS_FILE and AWE_GCAL_TOKEN_FILE must be set together")
	}
	return nil
}
