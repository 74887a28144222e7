// Package store persists dashboard panels in SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sawka/txwrap"

	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/policy"
)

type NotFoundError struct {
	ID       int64
	AppError model.AppError
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
}

func notFound(id int64) *NotFoundError {
	return &NotFoundError{
		ID: id,
		AppError: model.AppError{
			Code:    "PANEL_NOT_FOUND",
			Message: fmt.Sprintf("panel %d does not exist or is not visible", id),
			Stage:   "load_panel",
		},
	}
}

type Options struct {
	Path   string
	Logger *slog.Logger
	// Cache is optional; nil reads straight from SQLite.
	Cache *Cache
}

type Store struct {
	db      *sqlx.DB
	log     *slog.Logger
	cache   *Cache
	checker policy.Checker
}

// Open opens (creating if needed) the database at opts.Path and applies
// migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: empty database path")
	}
	db, err := openDB(ctx, opts.Path)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("panel store initialized", "path", opts.Path)
	return &Store{db: db, log: logger, cache: opts.Cache}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type panelRow struct {
	ID           int64  `db:"id" json:"id"`
	PHID         string `db:"phid" json:"phid"`
	Name         string `db:"name" json:"name"`
	Type         string `db:"panel_type" json:"type"`
	ViewPolicy   string `db:"view_policy" json:"viewPolicy"`
	EditPolicy   string `db:"edit_policy" json:"editPolicy"`
	Properties   string `db:"properties" json:"properties"`
	DateCreated  int64  `db:"date_created" json:"dateCreated"`
	DateModified int64  `db:"date_modified" json:"dateModified"`
}

const panelColumns = `id, phid, name, panel_type, view_policy, edit_policy, properties, date_created, date_modified`

func (r panelRow) panel() (*model.Panel, error) {
	props := map[string]any{}
	if r.Properties != "" {
		if err := json.Unmarshal([]byte(r.Properties), &props); err != nil {
			return nil, fmt.Errorf("decode properties of panel %d: %w", r.ID, err)
		}
	}
	return &model.Panel{
		ID:           r.ID,
		PHID:         r.PHID,
		Name:         r.Name,
		Type:         r.Type,
		ViewPolicy:   r.ViewPolicy,
		EditPolicy:   r.EditPolicy,
		Properties:   props,
		DateCreated:  time.UnixMilli(r.DateCreated).UTC(),
		DateModified: time.UnixMilli(r.DateModified).UTC(),
	}, nil
}

func rowFromPanel(p *model.Panel) (panelRow, error) {
	props := p.Properties
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return panelRow{}, fmt.Errorf("encode properties of panel %q: %w", p.PHID, err)
	}
	return panelRow{
		ID:           p.ID,
		PHID:         p.PHID,
		Name:         p.Name,
		Type:         p.Type,
		ViewPolicy:   p.ViewPolicy,
		EditPolicy:   p.EditPolicy,
		Properties:   string(b),
		DateCreated:  p.DateCreated.UnixMilli(),
		DateModified: p.DateModified.UnixMilli(),
	}, nil
}

// LoadByIDs returns the panels with the given ids, without any visibility
// filtering. Unknown ids are absent from the result.
func (s *Store) LoadByIDs(ctx context.Context, ids []int64) (map[int64]*model.Panel, error) {
	out := make(map[int64]*model.Panel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.cache != nil {
		hits, err := s.cache.GetMany(ctx, ids)
		if err != nil {
			s.log.Warn("panel cache read failed", "err", err)
		}
		missing = missing[:0:0]
		for _, id := range ids {
			if p, ok := hits[id]; ok {
				out[id] = p
			} else {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			return out, nil
		}
	}

	rows, err := s.selectRows(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		p, err := r.panel()
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	if s.cache != nil && len(rows) > 0 {
		if err := s.cache.SetMany(ctx, rows); err != nil {
			s.log.Warn("panel cache write failed", "err", err)
		}
	}
	return out, nil
}

func (s *Store) selectRows(ctx context.Context, ids []int64) ([]panelRow, error) {
	query, args, err := sqlx.In(`SELECT `+panelColumns+` FROM panels WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []panelRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select panels: %w", err)
	}
	return rows, nil
}

// FindByIDs is LoadByIDs restricted to panels viewer can see.
func (s *Store) FindByIDs(ctx context.Context, viewer model.Viewer, ids []int64) (map[int64]*model.Panel, error) {
	panels, err := s.LoadByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.checker.FilterVisible(viewer, panels), nil
}

// ByID returns one visible panel or a *NotFoundError.
func (s *Store) ByID(ctx context.Context, viewer model.Viewer, id int64) (*model.Panel, error) {
	panels, err := s.FindByIDs(ctx, viewer, []int64{id})
	if err != nil {
		return nil, err
	}
	p, ok := panels[id]
	if !ok {
		return nil, notFound(id)
	}
	return p, nil
}

// List returns every panel ordered by id, unfiltered.
func (s *Store) List(ctx context.Context) ([]*model.Panel, error) {
	var rows []panelRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+panelColumns+` FROM panels ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	out := make([]*model.Panel, 0, len(rows))
	for _, r := range rows {
		p, err := r.panel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

const insertPanelSQL = `
INSERT INTO panels (phid, name, panel_type, view_policy, edit_policy, properties, date_created, date_modified)
VALUES (:phid, :name, :panel_type, :view_policy, :edit_policy, :properties, :date_created, :date_modified)`

const upsertPanelSQL = `
INSERT INTO panels (` + panelColumns + `)
VALUES (:id, :phid, :name, :panel_type, :view_policy, :edit_policy, :properties, :date_created, :date_modified)
ON CONFLICT(id) DO UPDATE SET
    phid = excluded.phid,
    name = excluded.name,
    panel_type = excluded.panel_type,
    view_policy = excluded.view_policy,
    edit_policy = excluded.edit_policy,
    properties = excluded.properties,
    date_modified = excluded.date_modified`

// Put inserts p, or replaces the stored panel with the same id. A zero id
// allocates a new one, written back to p. DateCreated is kept on update.
func (s *Store) Put(ctx context.Context, p *model.Panel) error {
	return s.PutAll(ctx, []*model.Panel{p})
}

// PutAll is Put for several panels in one transaction: either every panel
// is stored or none is.
func (s *Store) PutAll(ctx context.Context, panels []*model.Panel) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	rows := make([]panelRow, 0, len(panels))
	for _, p := range panels {
		if p == nil {
			return errors.New("store: nil panel")
		}
		if !model.ValidPHID(p.PHID) {
			return fmt.Errorf("store: invalid panel phid %q", p.PHID)
		}
		if p.DateCreated.IsZero() {
			p.DateCreated = now
		}
		p.DateModified = now
		row, err := rowFromPanel(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	err := s.withTx(ctx, func(tx *txwrap.TxWrap) error {
		for i := range rows {
			if rows[i].ID != 0 {
				tx.NamedExec(upsertPanelSQL, rows[i])
				continue
			}
			tx.NamedExec(insertPanelSQL, rows[i])
			rows[i].ID = int64(tx.GetInt(`SELECT last_insert_rowid()`))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store panels: %w", err)
	}

	for i, p := range panels {
		p.ID = rows[i].ID
		if s.cache == nil {
			continue
		}
		if err := s.cache.Delete(ctx, p.ID); err != nil {
			s.log.Warn("panel cache invalidation failed", "id", p.ID, "err", err)
		}
	}
	return nil
}

