package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/tourcheck/internal/client/client"
	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/client/normalize"
	"github.com/dmitrijs2005/tourcheck/internal/client/sharecode"
	"github.com/dmitrijs2005/tourcheck/internal/common"
	"github.com/dmitrijs2005/tourcheck/internal/logging"
)

type State string

const (
	StateUnloaded State = "unloaded"
	StateOnline   State = "online"
	StateOffline  State = "offline"
)

const DefaultRetryInterval = 10 * time.Second

const dateLayout = "2006-01-02"

// NewTour is the user input for CreateTour. An empty DateKey means today.
type NewTour struct {
	Agency  string
	Group   string
	DateKey string
}

// Status is a point-in-time view of the engine.
type Status struct {
	State State
	Code  string
	Meta  models.TourMeta
	TS    int64
	Stats normalize.Stats
}

type EngineOptions struct {
	Gateway      client.Gateway
	Store        LocalStore
	Connectivity client.Connectivity
	Logger       logging.Logger

	RetryInterval time.Duration
	// Now is a seam for tests.
	Now func() time.Time
}

// Engine owns the canonical passenger list of the active tour and keeps it
// in sync with the remote document: every mutation is normalized, persisted
// locally and pushed in the background, and remote changes observed by the
// poll loop are adopted when their ts is not older than the local one.
//
// Conflicts resolve last-write-wins on the whole list.
type Engine struct {
	gw            client.Gateway
	store         LocalStore
	conn          client.Connectivity
	log           logging.Logger
	now           func() time.Time
	retryInterval time.Duration

	// opMu serializes lifecycle operations (create/join/open/leave/close).
	opMu sync.Mutex

	mu         sync.Mutex
	state      State
	meta       models.TourMeta
	passengers []models.Passenger
	ts         int64
	lastTS     int64
	lastPushed string
	forcePush  bool
	// remoteSeen is set once the session has observed a remote document.
	remoteSeen bool
	sess       *session

	changes chan struct{}
}

// session is one activation of a tour: its poll loop, push worker and retry
// ticker. Results from a session that is no longer current are discarded.
type session struct {
	code     string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	pushCh   chan struct{}
	stopPoll func()
}

func (s *session) stop() {
	s.cancel()
	if s.stopPoll != nil {
		s.stopPoll()
	}
	s.wg.Wait()
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Connectivity == nil {
		opts.Connectivity = client.AlwaysOnline{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		gw:            opts.Gateway,
		store:         opts.Store,
		conn:          opts.Connectivity,
		log:           opts.Logger.With("module", "engine"),
		now:           opts.Now,
		retryInterval: opts.RetryInterval,
		state:         StateUnloaded,
		passengers:    []models.Passenger{},
		changes:       make(chan struct{}, 1),
	}
}

// Changes signals (coalesced) that the list was replaced by a remote version.
func (e *Engine) Changes() <-chan struct{} {
	return e.changes
}

func (e *Engine) notifyLocked() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

// nextTSLocked returns a ms timestamp strictly greater than any ts this engine
// produced or adopted.
func (e *Engine) nextTSLocked() int64 {
	ts := e.now().UnixMilli()
	if ts <= e.lastTS {
		ts = e.lastTS + 1
	}
	if ts <= e.ts {
		ts = e.ts + 1
	}
	e.lastTS = ts
	return ts
}

func serialize(list []models.Passenger) string {
	b, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(b)
}

// ---- lifecycle ----

// CreateTour starts a new, empty tour and makes it active.
func (e *Engine) CreateTour(ctx context.Context, in NewTour) (models.TourMeta, error) {
	agency := strings.TrimSpace(in.Agency)
	group := strings.TrimSpace(in.Group)
	dateKey := strings.TrimSpace(in.DateKey)

	if utf8.RuneCountInString(agency) < 2 {
		return models.TourMeta{}, fmt.Errorf("%w: agency must be at least 2 characters", common.ErrValidation)
	}
	if group == "" {
		return models.TourMeta{}, fmt.Errorf("%w: group is required", common.ErrValidation)
	}
	if dateKey == "" {
		dateKey = e.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, dateKey); err != nil {
		return models.TourMeta{}, fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrValidation)
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	ts := e.nextTSLocked()
	e.mu.Unlock()

	meta := models.TourMeta{
		Code:    sharecode.Generate(),
		Agency:  agency,
		Group:   group,
		DateKey: dateKey,
		TS:      ts,
	}
	snap := Snapshot{Meta: meta, Passengers: []models.Passenger{}, TS: ts}
	if err := e.store.Save(ctx, snap); err != nil {
		e.log.Warn(ctx, "failed to persist new tour", "code", meta.Code, "error", err)
	}

	e.activate(ctx, snap, "")
	e.log.Info(ctx, "tour created", "code", meta.Code)

	e.mu.Lock()
	e.schedulePushLocked(false)
	e.mu.Unlock()

	return meta, nil
}

// JoinTour activates the tour addressed by code. A well-formed remote
// document is adopted as is and replaces any local snapshot; the local copy
// is only used when the remote is unreachable or unknown. Without either
// ErrNotFound is returned and the current tour stays active.
func (e *Engine) JoinTour(ctx context.Context, code string) (models.TourMeta, error) {
	code = sharecode.Normalize(code)
	if err := sharecode.Validate(code); err != nil {
		return models.TourMeta{}, err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	local, hasLocal := e.store.Load(ctx, code)

	if remote, ok := models.DecodeDocument(e.gw.Get(ctx, common.TourPath(code))); ok {
		meta := models.TourMeta{Code: code}
		if hasLocal {
			meta = local.Meta
		}
		if remote.Meta != nil {
			meta = *remote.Meta
		}
		meta.Code = code

		snap := Snapshot{Meta: meta, Passengers: normalize.Passengers(remote.Passengers), TS: remote.TS}
		if err := e.store.Save(ctx, snap); err != nil {
			e.log.Warn(ctx, "failed to persist joined tour", "code", code, "error", err)
		}
		e.activate(ctx, snap, serialize(snap.Passengers))
		e.log.Info(ctx, "joined tour", "code", code, "source", "remote")
		return snap.Meta, nil
	}

	if hasLocal {
		local.Passengers = normalize.Passengers(local.Passengers)
		e.activate(ctx, local, "")
		e.log.Info(ctx, "joined tour", "code", code, "source", "local")
		return local.Meta, nil
	}

	return models.TourMeta{}, fmt.Errorf("%w: tour %s", common.ErrNotFound, code)
}

// OpenTour switches to a tour from the local index without a remote round
// trip. An unknown code opens an empty list with ts 0, so the first poll
// adopts whatever the remote holds.
func (e *Engine) OpenTour(ctx context.Context, code string) (models.TourMeta, error) {
	code = sharecode.Normalize(code)
	if err := sharecode.Validate(code); err != nil {
		return models.TourMeta{}, err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, ok := e.store.Load(ctx, code)
	if !ok {
		snap = Snapshot{Meta: models.TourMeta{Code: code}, Passengers: []models.Passenger{}}
	}
	snap.Passengers = normalize.Passengers(snap.Passengers)
	e.activate(ctx, snap, "")
	e.log.Info(ctx, "opened tour", "code", code, "known", ok)
	return snap.Meta, nil
}

// Restore reopens the tour that was active when the process last exited.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	code := e.store.ActiveCode(ctx)
	if code == "" {
		return false, nil
	}
	if _, err := e.OpenTour(ctx, code); err != nil {
		return false, err
	}
	return true, nil
}

// LeaveTour deactivates the current tour. Its local snapshot is kept.
func (e *Engine) LeaveTour(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.leave(ctx)
}

func (e *Engine) leave(ctx context.Context) {
	e.stopSession()

	e.mu.Lock()
	code := e.meta.Code
	e.state = StateUnloaded
	e.meta = models.TourMeta{}
	e.passengers = []models.Passenger{}
	e.ts = 0
	e.lastPushed = ""
	e.forcePush = false
	e.mu.Unlock()

	if err := e.store.SetActiveCode(ctx, ""); err != nil {
		e.log.Warn(ctx, "failed to clear active code", "error", err)
	}
	if code != "" {
		e.log.Info(ctx, "left tour", "code", code)
	}
}

// DeleteLocal forgets a tour on this device only; the remote document is
// left untouched. Deleting the active tour leaves it first.
func (e *Engine) DeleteLocal(ctx context.Context, code string) error {
	code = sharecode.Normalize(code)

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	active := e.state != StateUnloaded && e.meta.Code == code
	e.mu.Unlock()
	if active {
		e.leave(ctx)
	}

	if err := e.store.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete tour %s: %w", code, err)
	}
	e.log.Info(ctx, "deleted local tour", "code", code)
	return nil
}

// Close stops background work. The active code stays persisted for Restore.
func (e *Engine) Close() {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.stopSession()
}

func (e *Engine) stopSession() {
	e.mu.Lock()
	sess := e.sess
	e.sess = nil
	e.mu.Unlock()

	// outside mu: session goroutines take mu
	if sess != nil {
		sess.stop()
	}
}

// activate replaces the in-memory state with snap and starts a new session.
// Callers hold opMu.
func (e *Engine) activate(ctx context.Context, snap Snapshot, lastPushed string) {
	e.stopSession()

	sess := &session{code: snap.Meta.Code, pushCh: make(chan struct{}, 1)}
	sess.ctx, sess.cancel = context.WithCancel(context.Background())

	e.mu.Lock()
	e.meta = snap.Meta
	e.passengers = snap.Passengers
	if e.passengers == nil {
		e.passengers = []models.Passenger{}
	}
	e.ts = snap.TS
	if e.ts > e.lastTS {
		e.lastTS = e.ts
	}
	e.lastPushed = lastPushed
	e.forcePush = false
	e.remoteSeen = lastPushed != ""
	e.state = StateOnline
	if !e.conn.Online() {
		e.state = StateOffline
	}
	e.sess = sess
	e.mu.Unlock()

	if err := e.store.SetActiveCode(ctx, snap.Meta.Code); err != nil {
		e.log.Warn(ctx, "failed to persist active code", "error", err)
	}

	sess.wg.Add(2)
	go e.pushWorker(sess)
	go e.retryLoop(sess)
	sess.stopPoll = e.gw.Poll(common.TourPath(sess.code), func(raw []byte) {
		e.onRemote(sess, raw)
	})
}

// ---- mutations ----

// Mutate applies fn to a copy of the list. If fn fails nothing changes;
// otherwise the result is normalized, stamped, persisted and scheduled for
// push.
func (e *Engine) Mutate(ctx context.Context, fn func([]models.Passenger) ([]models.Passenger, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateUnloaded {
		return common.ErrNoActiveTour
	}

	next, err := fn(models.ClonePassengers(e.passengers))
	if err != nil {
		return err
	}

	e.passengers = normalize.Passengers(next)
	e.ts = e.nextTSLocked()
	e.persistLocked(ctx)
	e.schedulePushLocked(false)
	return nil
}

func (e *Engine) persistLocked(ctx context.Context) {
	snap := Snapshot{Meta: e.meta, Passengers: e.passengers, TS: e.ts}
	if err := e.store.Save(ctx, snap); err != nil {
		e.log.Warn(ctx, "failed to persist snapshot", "code", e.meta.Code, "error", err)
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return "", fmt.Errorf("%w: name must be at least 2 characters", common.ErrValidation)
	}
	return name, nil
}

func newPassenger(c models.Candidate, name, list string) models.Passenger {
	return models.Passenger{
		ID:       models.NewPassengerID(),
		Name:     name,
		Passport: strings.TrimSpace(c.Passport),
		Phone:    strings.TrimSpace(c.Phone),
		List:     list,
	}
}

// AddPassenger appends one passenger to list (empty means the default list).
func (e *Engine) AddPassenger(ctx context.Context, c models.Candidate, list string) (models.Passenger, error) {
	name, err := validateName(c.Name)
	if err != nil {
		return models.Passenger{}, err
	}
	p := newPassenger(c, name, strings.TrimSpace(list))

	err = e.Mutate(ctx, func(cur []models.Passenger) ([]models.Passenger, error) {
		return append(cur, p), nil
	})
	if err != nil {
		return models.Passenger{}, err
	}
	return p, nil
}

// ImportCandidates validates every candidate first and adds all of them in a
// single mutation, or none.
func (e *Engine) ImportCandidates(ctx context.Context, cs []models.Candidate, list string) (int, error) {
	if len(cs) == 0 {
		return 0, common.ErrNothingExtracted
	}
	list = strings.TrimSpace(list)

	add := make([]models.Passenger, 0, len(cs))
	for i, c := range cs {
		name, err := validateName(c.Name)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		add = append(add, newPassenger(c, name, list))
	}

	err := e.Mutate(ctx, func(cur []models.Passenger) ([]models.Passenger, error) {
		return append(cur, add...), nil
	})
	if err != nil {
		return 0, err
	}
	return len(add), nil
}

func (e *Engine) updateOne(ctx context.Context, id models.PassengerID, fn func(*models.Passenger)) error {
	return e.Mutate(ctx, func(cur []models.Passenger) ([]models.Passenger, error) {
		for i := range cur {
			if cur[i].ID == id {
				fn(&cur[i])
				return cur, nil
			}
		}
		return nil, fmt.Errorf("%w: passenger %s", common.ErrNotFound, id)
	})
}

func (e *Engine) ToggleChecked(ctx context.Context, id models.PassengerID) error {
	return e.updateOne(ctx, id, func(p *models.Passenger) { p.Checked = !p.Checked })
}

func (e *Engine) ToggleVisa(ctx context.Context, id models.PassengerID) error {
	return e.updateOne(ctx, id, func(p *models.Passenger) { p.VisaFlag = !p.VisaFlag })
}

func (e *Engine) RemovePassenger(ctx context.Context, id models.PassengerID) error {
	return e.Mutate(ctx, func(cur []models.Passenger) ([]models.Passenger, error) {
		for i := range cur {
			if cur[i].ID == id {
				return append(cur[:i], cur[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: passenger %s", common.ErrNotFound, id)
	})
}

// ---- sync ----

// schedulePushLocked wakes the push worker. The channel holds one pending
// request, so bursts of mutations collapse into one push of the latest list.
func (e *Engine) schedulePushLocked(force bool) {
	if e.sess == nil {
		return
	}
	if force {
		e.forcePush = true
	}
	select {
	case e.sess.pushCh <- struct{}{}:
	default:
	}
}

func (e *Engine) pushWorker(sess *session) {
	defer sess.wg.Done()
	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-sess.pushCh:
			e.push(sess)
		}
	}
}

func (e *Engine) retryLoop(sess *session) {
	defer sess.wg.Done()

	ticker := time.NewTicker(e.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			retry := e.sess == sess && e.state == StateOffline && e.conn.Online()
			if retry {
				e.forcePush = true
			}
			e.mu.Unlock()
			if retry {
				e.push(sess)
			}
		}
	}
}

// push sends the current list unless it equals the last attempted one.
// lastPushed is updated at attempt time, so a failed push is not repeated
// until the retry ticker forces it.
func (e *Engine) push(sess *session) {
	e.mu.Lock()
	if e.sess != sess {
		e.mu.Unlock()
		return
	}
	if !e.conn.Online() {
		e.state = StateOffline
		e.mu.Unlock()
		return
	}
	payload := serialize(e.passengers)
	if payload == e.lastPushed && !e.forcePush {
		e.mu.Unlock()
		return
	}
	e.lastPushed = payload
	e.forcePush = false
	meta := e.meta
	doc := models.Document{Meta: &meta, Passengers: models.ClonePassengers(e.passengers), TS: e.ts}
	e.mu.Unlock()

	ok := e.gw.Set(sess.ctx, common.TourPath(sess.code), doc)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != sess {
		return
	}
	if ok {
		e.state = StateOnline
	} else {
		e.state = StateOffline
		e.log.Debug(sess.ctx, "push failed", "code", sess.code, "ts", doc.TS)
	}
}

// onRemote handles one poll observation. A well-formed document with
// ts >= local ts replaces the list (without re-pushing it); an older or
// missing document means the remote lags behind, so the local list is pushed.
func (e *Engine) onRemote(sess *session, raw []byte) {
	ctx := sess.ctx
	doc, ok := models.DecodeDocument(raw)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != sess {
		return
	}

	if !ok {
		if e.ts > 0 && isNull(raw) && !e.ownPushInFlightLocked() {
			e.schedulePushLocked(true)
		}
		return
	}
	e.remoteSeen = true

	if doc.TS < e.ts {
		e.schedulePushLocked(true)
		return
	}

	e.passengers = normalize.Passengers(doc.Passengers)
	e.ts = doc.TS
	if e.ts > e.lastTS {
		e.lastTS = e.ts
	}
	if doc.Meta != nil {
		meta := *doc.Meta
		meta.Code = e.meta.Code
		e.meta = meta
	}
	e.lastPushed = serialize(e.passengers)
	e.forcePush = false
	e.state = StateOnline
	e.persistLocked(ctx)
	e.notifyLocked()
	e.log.Debug(ctx, "adopted remote list", "code", sess.code, "ts", e.ts, "count", len(e.passengers))
}

// ownPushInFlightLocked reports that the current list was already sent (or
// is being sent) in this session and no remote document has been observed
// since. A null seen then is the poll racing that push, not a deletion.
func (e *Engine) ownPushInFlightLocked() bool {
	return !e.remoteSeen && e.state != StateOffline && e.lastPushed == serialize(e.passengers)
}

func isNull(raw []byte) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// ---- reads ----

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		State: e.state,
		Code:  e.meta.Code,
		Meta:  e.meta,
		TS:    e.ts,
		Stats: normalize.Count(e.passengers),
	}
}

// Passengers returns a copy of the canonical list.
func (e *Engine) Passengers() []models.Passenger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.ClonePassengers(e.passengers)
}

func (e *Engine) Search(query string) []models.Passenger {
	return normalize.Filter(e.Passengers(), query)
}

// Find looks a passenger up by id.
func (e *Engine) Find(id models.PassengerID) (models.Passenger, error) {
	for _, p := range e.Passengers() {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Passenger{}, fmt.Errorf("%w: passenger %s", common.ErrNotFound, id)
}

// Tours lists locally known tours, most recent first.
func (e *Engine) Tours(ctx context.Context) ([]models.TourMeta, error) {
	return e.store.Index(ctx)
}

func (e *Engine) Hidden(ctx context.Context) bool {
	return e.store.Hidden(ctx)
}

func (e *Engine) SetHidden(ctx context.Context, hidden bool) error {
	return e.store.SetHidden(ctx, hidden)
}

func (e *Engine) ListNames(ctx context.Context) []string {
	return e.store.ListNames(ctx)
}

func (e *Engine) SetListNames(ctx context.Context, names []string) error {
	return e.store.SetListNames(ctx, names)
}

// IsValidation reports whether err is a user input problem rather than a
// failure.
func IsValidation(err error) bool {
	return errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrInvalidCode) ||
		errors.Is(err, common.ErrNothingExtracted)
}
