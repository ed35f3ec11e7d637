package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory gateway.PlayerStore
type fakeStore struct {
	mu      sync.Mutex
	rows    []models.PlayerRecord
	nextID  int64
	listErr error
	addErr  error
	delErr  error

	lists, inserts, deletes int

	// insertHook runs inside InsertPlayer before the row is stored
	insertHook func(p models.NewPlayer)
	// listHook runs inside ListPlayers after rows are copied
	listHook func(call int)
	// deleteHook runs inside DeletePlayer before the row is removed
	deleteHook func(id int64)
}

func (f *fakeStore) ListPlayers(ctx context.Context) ([]models.PlayerRecord, error) {
	f.mu.Lock()
	f.lists++
	call := f.lists
	err := f.listErr
	out := make([]models.PlayerRecord, len(f.rows))
	copy(out, f.rows)
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) InsertPlayer(ctx context.Context, p models.NewPlayer) error {
	if f.insertHook != nil {
		f.insertHook(p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.addErr != nil {
		return f.addErr
	}
	f.nextID++
	f.rows = append(f.rows, models.PlayerRecord{ID: f.nextID, NewPlayer: p})
	return nil
}

func (f *fakeStore) DeletePlayer(ctx context.Context, id int64) error {
	if f.deleteHook != nil {
		f.deleteHook(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.delErr != nil {
		return f.delErr
	}
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (n *recordingNotifier) RosterChanged(ctx context.Context, ev models.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func submit(t *testing.T, c *Controller, p models.NewPlayer) {
	t.Helper()
	_, err := c.Submit(context.Background(), p)
	require.NoError(t, err)
}

var kim = models.NewPlayer{Name: "Kim", PA: 20, Hits: 6, Double: 1, Triple: 0, Homerun: 1, Walks: 4, SB: 2, SBFail: 0}

func TestSubmit_KimEndToEnd(t *testing.T) {
	store := &fakeStore{}
	notifier := &recordingNotifier{}
	c := New(Options{Store: store, Notifier: notifier, Origin: "test"})

	form, err := c.Submit(context.Background(), kim)
	require.NoError(t, err)
	assert.Equal(t, models.NewPlayer{}, form, "form is cleared after a successful save")

	players := c.Players()
	require.Len(t, players, 1)
	p := players[0]

	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, 16, p.AtBats)
	assert.Equal(t, 4, p.Singles)
	assert.Equal(t, 10, p.TotalBases)
	assert.InDelta(t, 0.375, p.AVG, 1e-9)
	assert.InDelta(t, 0.5, p.OBP, 1e-9)
	assert.InDelta(t, 0.625, p.SLG, 1e-9)
	assert.InDelta(t, 1.125, p.OPS, 1e-9)
	assert.InDelta(t, 5, p.RunsCreated, 1e-9)
	assert.InDelta(t, 100, p.StolenBaseRate, 1e-9)
	// Alone on the roster: exactly the team average
	assert.InDelta(t, 100, p.OPSPlusIndex, 1e-9)
	assert.InDelta(t, 0, p.WARProxy, 1e-9)

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	assert.Equal(t, models.ChangeInsert, ev.Kind)
	assert.Equal(t, "Kim", ev.PlayerName)
	assert.Equal(t, "test", ev.Origin)
	assert.NotEmpty(t, ev.EventID)
}

func TestSubmit_BlankNameNeverCallsGateway(t *testing.T) {
	store := &fakeStore{}
	c := New(Options{Store: store})

	for _, name := range []string{"", "   "} {
		form, err := c.Submit(context.Background(), models.NewPlayer{Name: name, PA: 3})

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
		assert.Equal(t, "name", verr.Field)
		assert.Equal(t, 3, form.PA, "form keeps what the user typed")
	}

	assert.Zero(t, store.inserts)
	assert.Zero(t, store.lists)
}

func TestSubmit_InsertFailureKeepsForm(t *testing.T) {
	store := &fakeStore{addErr: errors.New("permission denied for table players")}
	c := New(Options{Store: store})

	form, err := c.Submit(context.Background(), kim)

	var ierr *InsertError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "permission denied for table players", ierr.Reason())
	assert.Contains(t, ierr.Error(), "permission denied")
	assert.Equal(t, kim, form)
	assert.Zero(t, store.lists, "no refresh after a failed insert")
}

func TestSubmit_RefreshFailureStillSucceeds(t *testing.T) {
	store := &fakeStore{listErr: errors.New("timeout")}
	c := New(Options{Store: store})

	form, err := c.Submit(context.Background(), kim)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, models.NewPlayer{}, form)
}

func TestRefresh_FailureRetainsSnapshot(t *testing.T) {
	store := &fakeStore{}
	c := New(Options{Store: store})
	submit(t, c, kim)
	before := c.Snapshot()
	require.Len(t, before, 1)

	store.mu.Lock()
	store.listErr = errors.New("connection reset")
	store.mu.Unlock()

	err := c.Refresh(context.Background())

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.EqualError(t, ferr.Unwrap(), "connection reset")
	assert.Equal(t, before, c.Snapshot())
	assert.True(t, c.View(sabermetrics.MetricOPS).Loaded)
}

func TestRefresh_DiscardsStaleResponse(t *testing.T) {
	store := &fakeStore{rows: []models.PlayerRecord{{ID: 1, NewPlayer: models.NewPlayer{Name: "old"}}}}
	c := New(Options{Store: store})

	firstListed := make(chan struct{})
	release := make(chan struct{})
	store.listHook = func(call int) {
		if call == 1 {
			close(firstListed)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-firstListed

	// A newer refresh sees a changed collection and lands first
	store.mu.Lock()
	store.rows = append(store.rows, models.PlayerRecord{ID: 2, NewPlayer: models.NewPlayer{Name: "new"}})
	store.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))

	close(release)
	require.NoError(t, <-done)

	assert.Len(t, c.Snapshot(), 2, "the older response must not overwrite the newer one")
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	store := &fakeStore{}
	c := New(Options{Store: store})

	err := c.Delete(context.Background(), 1, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Zero(t, store.deletes)
}

func TestDelete_FailureIsGeneric(t *testing.T) {
	store := &fakeStore{delErr: errors.New("pq: relation \"players\" does not exist")}
	c := New(Options{Store: store})

	err := c.Delete(context.Background(), 7, true)

	var derr *DeleteError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "delete failed", derr.Error())
	assert.Equal(t, int64(7), derr.ID)
	assert.Zero(t, store.lists)
}

func TestDelete_SuccessRefreshes(t *testing.T) {
	store := &fakeStore{}
	notifier := &recordingNotifier{}
	c := New(Options{Store: store, Notifier: notifier})
	submit(t, c, kim)
	submit(t, c, models.NewPlayer{Name: "Lee", PA: 10, Hits: 2})
	require.Len(t, c.Snapshot(), 2)

	require.NoError(t, c.Delete(context.Background(), 1, true))

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "Lee", snap[0].Name)
	assert.Equal(t, models.ChangeDelete, notifier.events[len(notifier.events)-1].Kind)
}

func TestDelete_MissingIDIsNoOp(t *testing.T) {
	store := &fakeStore{}
	c := New(Options{Store: store})

	assert.NoError(t, c.Delete(context.Background(), 999, true))
	assert.Equal(t, 1, store.lists)
}

func TestSubmit_DuplicateInFlightIsBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	store := &fakeStore{}
	store.insertHook = func(p models.NewPlayer) {
		if p.Name == kim.Name {
			close(entered)
			<-release
		}
	}
	c := New(Options{Store: store})

	first := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), kim)
		first <- err
	}()
	<-entered

	// Same player, different casing: still the same logical entity
	_, err := c.Submit(context.Background(), models.NewPlayer{Name: " kim "})
	assert.ErrorIs(t, err, ErrBusy)

	// A different player is not blocked
	submit(t, c, models.NewPlayer{Name: "Lee"})

	close(release)
	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first submit did not finish")
	}
	assert.Equal(t, 2, store.inserts)
}

func TestDelete_OverlappingSameIDIsBusy(t *testing.T) {
	store := &fakeStore{rows: []models.PlayerRecord{
		{ID: 1, NewPlayer: models.NewPlayer{Name: "Kim"}},
		{ID: 2, NewPlayer: models.NewPlayer{Name: "Lee"}},
	}}

	entered := make(chan struct{})
	release := make(chan struct{})
	store.deleteHook = func(id int64) {
		if id == 1 {
			close(entered)
			<-release
		}
	}
	c := New(Options{Store: store})

	first := make(chan error, 1)
	go func() { first <- c.Delete(context.Background(), 1, true) }()
	<-entered

	assert.ErrorIs(t, c.Delete(context.Background(), 1, true), ErrBusy)

	// Another row is not blocked
	require.NoError(t, c.Delete(context.Background(), 2, true))

	close(release)
	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first delete did not finish")
	}

	assert.Equal(t, 2, store.deletes)
	assert.Empty(t, c.Snapshot())
}

func TestView_SortsAndPicksLeaders(t *testing.T) {
	store := &fakeStore{}
	c := New(Options{Store: store})

	assert.False(t, c.View(sabermetrics.DefaultMetric).Loaded)

	submit(t, c, models.NewPlayer{Name: "Contact", PA: 20, Hits: 8, Walks: 0})
	submit(t, c, models.NewPlayer{Name: "Power", PA: 20, Hits: 5, Homerun: 4, Walks: 5})

	v := c.View(sabermetrics.MetricAVG)
	require.True(t, v.Loaded)
	require.Len(t, v.Players, 2)
	assert.Equal(t, "Contact", v.Players[0].Name)
	assert.Equal(t, 2, v.Team.Players)

	leaders := map[string]string{}
	for _, l := range v.Leaders {
		leaders[l.Label] = l.Player.Name
	}
	assert.Equal(t, "Power", leaders["HR"])
	assert.Equal(t, "Power", leaders["BB"])
	assert.Equal(t, "Power", leaders["OPS"])
}

func TestView_EmptyRosterUsesPlaceholders(t *testing.T) {
	c := New(Options{Store: &fakeStore{}})
	require.NoError(t, c.Refresh(context.Background()))

	v := c.View(sabermetrics.DefaultMetric)
	assert.Empty(t, v.Players)
	for _, l := range v.Leaders {
		assert.Equal(t, "-", l.Player.Name)
	}
}

func TestFanout_NotifiesEveryone(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	c := New(Options{Store: &fakeStore{}, Notifier: Fanout{a, nil, b}})

	submit(t, c, kim)

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, a.events[0].EventID, b.events[0].EventID)
}
