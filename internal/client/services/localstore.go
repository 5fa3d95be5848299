package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/tourcheck/internal/client/client"
	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tourcheck/internal/client/repositories/tours"
	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/timex"
)

// Snapshot is the locally persisted state of one tour.
type Snapshot struct {
	Meta       models.TourMeta
	Passengers []models.Passenger
	TS         int64
}

// LocalStore is the device-local persistence used by the engine. Reads fail
// safe: a corrupted value is logged and replaced by its default.
type LocalStore interface {
	Load(ctx context.Context, code string) (Snapshot, bool)
	Save(ctx context.Context, s Snapshot) error
	Delete(ctx context.Context, code string) error
	// Index lists known tours, most recent ts first. Meta.TS carries the
	// snapshot ts.
	Index(ctx context.Context) ([]models.TourMeta, error)

	ActiveCode(ctx context.Context) string
	SetActiveCode(ctx context.Context, code string) error

	Hidden(ctx context.Context) bool
	SetHidden(ctx context.Context, hidden bool) error
	ListNames(ctx context.Context) []string
	SetListNames(ctx context.Context, names []string) error
}

type localStore struct {
	repos    *client.Repositories
	tours    tours.Repository
	metadata metadata.Repository
	log      logging.Logger
}

func NewLocalStore(repos *client.Repositories, log logging.Logger) LocalStore {
	if log == nil {
		log = logging.Nop()
	}
	return &localStore{
		repos:    repos,
		tours:    repos.Tours,
		metadata: repos.Metadata,
		log:      log.With("module", "localstore"),
	}
}

func (s *localStore) Load(ctx context.Context, code string) (Snapshot, bool) {
	row, err := s.tours.Get(ctx, code)
	if err != nil {
		s.log.Warn(ctx, "failed to load snapshot", "code", code, "error", err)
		return Snapshot{}, false
	}
	if row == nil {
		return Snapshot{}, false
	}
	return s.decode(ctx, *row), true
}

func (s *localStore) decode(ctx context.Context, row tours.Row) Snapshot {
	snap := Snapshot{Meta: models.TourMeta{Code: row.Code}, TS: row.TS}

	if len(row.Meta) > 0 {
		var meta models.TourMeta
		if err := json.Unmarshal(row.Meta, &meta); err != nil {
			s.log.Warn(ctx, "corrupted tour meta, using defaults", "code", row.Code, "error", err)
		} else {
			meta.Code = row.Code
			snap.Meta = meta
		}
	}

	snap.Passengers = []models.Passenger{}
	if len(row.Passengers) > 0 {
		var list []models.Passenger
		if err := json.Unmarshal(row.Passengers, &list); err != nil {
			// ts 0 lets the next remote observation win
			s.log.Warn(ctx, "corrupted passenger list, starting empty", "code", row.Code, "error", err)
			snap.TS = 0
		} else if list != nil {
			snap.Passengers = list
		}
	}
	return snap
}

func (s *localStore) Save(ctx context.Context, snap Snapshot) error {
	meta, err := json.Marshal(snap.Meta)
	if err != nil {
		return err
	}
	list := snap.Passengers
	if list == nil {
		list = []models.Passenger{}
	}
	passengers, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.tours.Put(ctx, tours.Row{
		Code:       snap.Meta.Code,
		Meta:       meta,
		Passengers: passengers,
		TS:         snap.TS,
		UpdatedAt:  timex.NowMillis(),
	})
}

// Delete drops the snapshot and, if code is the persisted active tour, the
// active marker with it, in one transaction.
func (s *localStore) Delete(ctx context.Context, code string) error {
	return s.repos.WithTx(ctx, func(ctx context.Context, tx *client.Repositories) error {
		if err := tx.Tours.Delete(ctx, code); err != nil {
			return err
		}
		active, err := tx.Metadata.Get(ctx, metadata.KeyActiveCode)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(active)) != code {
			return nil
		}
		return tx.Metadata.Delete(ctx, metadata.KeyActiveCode)
	})
}

func (s *localStore) Index(ctx context.Context) ([]models.TourMeta, error) {
	rows, err := s.tours.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.TourMeta, 0, len(rows))
	for _, row := range rows {
		meta := models.TourMeta{Code: row.Code}
		if len(row.Meta) > 0 {
			if err := json.Unmarshal(row.Meta, &meta); err != nil {
				s.log.Warn(ctx, "corrupted tour meta in index", "code", row.Code, "error", err)
				meta = models.TourMeta{Code: row.Code}
			}
		}
		meta.Code = row.Code
		meta.TS = row.TS
		out = append(out, meta)
	}
	return out, nil
}

func (s *localStore) ActiveCode(ctx context.Context) string {
	v, err := s.metadata.Get(ctx, metadata.KeyActiveCode)
	if err != nil {
		s.log.Warn(ctx, "failed to read active code", "error", err)
		return ""
	}
	return strings.TrimSpace(string(v))
}

func (s *localStore) SetActiveCode(ctx context.Context, code string) error {
	if code == "" {
		return s.metadata.Delete(ctx, metadata.KeyActiveCode)
	}
	return s.metadata.Set(ctx, metadata.KeyActiveCode, []byte(code))
}

func (s *localStore) Hidden(ctx context.Context) bool {
	v, err := s.metadata.Get(ctx, metadata.KeyHidden)
	if err != nil {
		s.log.Warn(ctx, "failed to read hidden flag", "error", err)
		return false
	}
	return string(v) == "1"
}

func (s *localStore) SetHidden(ctx context.Context, hidden bool) error {
	v := "0"
	if hidden {
		v = "1"
	}
	return s.metadata.Set(ctx, metadata.KeyHidden, []byte(v))
}

func (s *localStore) ListNames(ctx context.Context) []string {
	v, err := s.metadata.Get(ctx, metadata.KeyListNames)
	if err != nil {
		s.log.Warn(ctx, "failed to read list names", "error", err)
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(v, &names); err != nil {
		s.log.Warn(ctx, "corrupted list names, ignoring", "error", err)
		return nil
	}
	return names
}

func (s *localStore) SetListNames(ctx context.Context, names []string) error {
	clean := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		clean = append(clean, n)
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	return s.metadata.Set(ctx, metadata.KeyListNames, b)
}
