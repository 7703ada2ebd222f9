package sos

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/trail-guide/internal/models"
)

type fixedLocator struct{ loc *models.Location }

func (l fixedLocator) LastKnown(context.Context) (*models.Location, error) {
	if l.loc == nil {
		return nil, errors.New("no fix")
	}
	return l.loc, nil
}

type recordingSMS struct {
	to   []string
	body string
}

func (s *recordingSMS) Send(_ context.Context, to []string, body string) error {
	s.to, s.body = to, body
	return nil
}

type recordingComposer struct{ to string }

func (c *recordingComposer) Compose(_ context.Context, to, _ string) error {
	c.to = to
	return nil
}

type switchProber struct{ online []bool }

func (p *switchProber) Online(context.Context) bool {
	if len(p.online) == 0 {
		return false
	}
	v := p.online[0]
	if len(p.online) > 1 {
		p.online = p.online[1:]
	}
	return v
}

var contacts = []models.EmergencyContact{
	{Name: "Sam", Phone: "970-555-0101"},
	{Name: "Alex", Email: "alex@example.com"},
	{Name: "Jo", Phone: "970-555-0102"},
}

func newDispatcher(t *testing.T, online bool) (*Dispatcher, *fakeWriter) {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w := &fakeWriter{}
	return &Dispatcher{
		Locator: fixedLocator{loc: &models.Location{Latitude: 40.3, Longitude: -105.6}},
		Prober:  &switchProber{online: []bool{online}},
		Writer:  w,
		Queue:   NewQueue(store),
		now:     func() time.Time { return time.Date(2024, 7, 4, 20, 0, 0, 0, time.UTC) },
	}, w
}

func TestDispatchOnlineWritesSent(t *testing.T) {
	d, w := newDispatcher(t, true)
	sms := &recordingSMS{}
	d.SMS = sms

	name := "Sky Pond"
	res, err := d.Dispatch(context.Background(), Trip{Name: "Pat", TrailName: &name, Contacts: contacts})
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, 2, res.SMSRecipients)
	assert.Equal(t, []string{"970-555-0101", "970-555-0102"}, sms.to)
	assert.Equal(t, res.Message, sms.body)

	require.Len(t, w.written, 1)
	assert.Equal(t, models.AlertSent, w.written[0].Status)
	require.NotNil(t, w.written[0].Latitude)
	assert.Equal(t, 40.3, *w.written[0].Latitude)

	pending, err := d.Queue.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatchOfflineQueues(t *testing.T) {
	d, w := newDispatcher(t, false)
	composer := &recordingComposer{}
	d.Composer = composer
	d.Locator = fixedLocator{}

	res, err := d.Dispatch(context.Background(), Trip{Name: "Pat", Contacts: contacts})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.True(t, res.ComposerOpened)
	assert.Equal(t, "970-555-0101", composer.to)
	assert.Nil(t, res.Location)
	assert.Empty(t, w.written)

	pending, err := d.Queue.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.AlertPending, pending[0].Status)
	assert.Nil(t, pending[0].Latitude)
}

func TestDispatchQueuesWhenWriteFails(t *testing.T) {
	d, _ := newDispatcher(t, true)
	d.Writer = failingWriter{}

	res, err := d.Dispatch(context.Background(), Trip{Name: "Pat"})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Zero(t, res.SMSRecipients)
}

type failingWriter struct{}

func (failingWriter) CreateAlert(context.Context, *models.CreateAlertRequest) (*models.Alert, error) {
	return nil, errors.New("502 bad gateway")
}

func TestMonitorFlushesOnReconnect(t *testing.T) {
	ctx := context.Background()
	d, w := newDispatcher(t, false)

	_, err := d.Dispatch(ctx, Trip{Name: "Pat"})
	require.NoError(t, err)

	m := &Monitor{
		Prober: &switchProber{online: []bool{false, true, true}},
		Queue:  d.Queue,
		Writer: w,
	}

	flushed, _, err := m.Check(ctx)
	require.NoError(t, err)
	assert.False(t, flushed)

	flushed, res, err := m.Check(ctx)
	require.NoError(t, err)
	assert.True(t, flushed)
	assert.Equal(t, FlushResult{Sent: 1}, res)

	flushed, _, err = m.Check(ctx)
	require.NoError(t, err)
	assert.False(t, flushed, "staying online is not a transition")

	pending, err := d.Queue.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	require.Len(t, w.written, 1)
	assert.Equal(t, models.AlertSent, w.written[0].Status)
}
