// Package gcal books task events on a Google Calendar.
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rezkam/awe/internal/application/assignment"
)

// DefaultCalendarID is the calendar of the authorized account.
const DefaultCalendarID = "primary"

// Config locates the OAuth client secrets and the stored user token.
type Config struct {
	// CredentialsFile is the OAuth client JSON downloaded from the Cloud console.
	CredentialsFile string

	// TokenFile holds the authorized user token. Refreshed tokens are written back.
	TokenFile string

	CalendarID string
}

// Client creates calendar events. It implements assignment.Calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

var _ assignment.Calendar = (*Client)(nil)

// NewClient authorizes with the stored token and connects to the Calendar API.
// The token must already exist; this service never runs the interactive consent flow.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	secrets, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secrets, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar credentials: %w", err)
	}

	tok, err := readToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	ts := &savingTokenSource{
		src:  oauthCfg.TokenSource(ctx, tok),
		path: cfg.TokenFile,
		last: tok.AccessToken,
	}

	return NewClientWithOptions(ctx, cfg.CalendarID,
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts))))
}

// NewClientWithOptions connects with explicit client options, e.g. a service
// account or a test endpoint.
func NewClientWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &Client{srv: srv, calendarID: calendarID}, nil
}

// CreateEvent inserts the event and invites the attendee. Returns the event ID.
func (c *Client) CreateEvent(ctx context.Context, event assignment.CalendarEvent) (string, error) {
	ev := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTime(event.Start),
		End:         eventTime(event.End),
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
	if event.Attendee != "" {
		ev.Attendees = []*calendar.EventAttendee{{Email: event.Attendee}}
	}

	created, err := c.srv.Events.Insert(c.calendarID, ev).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return created.Id, nil
}

func eventTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: t.Location().String(),
	}
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode calendar token %s: %w", path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, errors.New("calendar token has neither access nor refresh token")
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// savingTokenSource writes refreshed tokens back to the token file so a restart
// does not reuse an expired access token.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := writeToken(s.path, tok); err != nil {
			slog.Warn("failed to save refreshed calendar token", "path", s.path, "error", err)
		}
	}
	return tok, nil
}
