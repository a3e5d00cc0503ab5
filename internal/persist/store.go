// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

// Package persist batches event upserts into an embedded DuckDB store,
// keyed on (source_slug, external_id), with satellite tables for the
// event's optional relations written in the same per-event transaction
// (spec §4.11).
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/agendacultural/ingestor/internal/config"
	"github.com/agendacultural/ingestor/internal/models"
)

// Store wraps a DuckDB connection pool and exposes the batched upsert API
// the pipeline orchestrator and deduplicator depend on.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) the DuckDB file at cfg.Path and ensures
// the schema exists.
func Open(cfg config.PersistenceConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, models.NewConfigError("persist", "", fmt.Errorf("persistence path required"))
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, models.NewConfigError("persist", "", fmt.Errorf("create data directory %s: %w", dir, err))
		}
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, models.NewConfigError("persist", "", fmt.Errorf("open duckdb: %w", err))
	}
	// DuckDB allows one writer at a time against a given file; routing every
	// statement through a single pooled connection serializes writes from
	// RunAll's concurrent per-source goroutines instead of racing them.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initialize() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return models.NewConfigError("persist", "", fmt.Errorf("apply schema: %w", err))
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Counts summarizes the outcome of a SaveBatch call.
type Counts struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
}

// SaveBatch upserts events keyed on (source_slug, external_id). When
// skipExisting is true, a collision with an existing row is counted as
// a skip and leaves the row untouched; otherwise it is an update. Each
// event (and its satellite rows) is written in its own transaction so a
// failure on one event does not roll back its siblings (spec §4.11).
func (s *Store) SaveBatch(ctx context.Context, events []*models.Event, skipExisting bool) Counts {
	var counts Counts
	for _, ev := range events {
		outcome, err := s.upsertOne(ctx, ev, skipExisting)
		if err != nil {
			counts.Failed++
			continue
		}
		switch outcome {
		case outcomeInserted:
			counts.Inserted++
		case outcomeUpdated:
			counts.Updated++
		case outcomeSkipped:
			counts.Skipped++
		}
	}
	return counts
}

type upsertOutcome int

const (
	outcomeInserted upsertOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

func (s *Store) upsertOne(ctx context.Context, ev *models.Event, skipExisting bool) (upsertOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existingID, err := lookupID(ctx, tx, ev.SourceSlug, ev.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("lookup existing: %w", err)
	}

	if existingID != "" {
		if skipExisting {
			if err := tx.Commit(); err != nil {
				return 0, fmt.Errorf("commit skip: %w", err)
			}
			return outcomeSkipped, nil
		}
		ev.ID = existingID
		if err := updateEvent(ctx, tx, ev); err != nil {
			return 0, fmt.Errorf("update event: %w", err)
		}
		if err := writeSatellites(ctx, tx, ev); err != nil {
			return 0, fmt.Errorf("write satellites: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit update: %w", err)
		}
		return outcomeUpdated, nil
	}

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	if err := writeSatellites(ctx, tx, ev); err != nil {
		return 0, fmt.Errorf("write satellites: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return outcomeInserted, nil
}

func lookupID(ctx context.Context, tx *sql.Tx, sourceSlug, externalID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE source_slug = ? AND external_id = ?`,
		sourceSlug, externalID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// EventsOnDate returns events already persisted on the given calendar
// day, the candidate pool the deduplicator narrows by normalized city
// (spec §4.10's "select-by-equality/range" contract).
func (s *Store) EventsOnDate(ctx context.Context, day time.Time) ([]*models.Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_slug, external_id, start_date, title, city, venue_name, description, image_url, is_free, price_info
		 FROM events WHERE start_date >= ? AND start_date < ?`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query events on date: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		ev := &models.Event{}
		var isFree int
		if err := rows.Scan(&ev.ID, &ev.SourceSlug, &ev.ExternalID, &ev.StartDate, &ev.Title, &ev.City, &ev.VenueName, &ev.Description, &ev.ImageURL, &isFree, &ev.PriceInfo); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.IsFree = models.Tristate(isFree)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev *models.Event) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO events (
		id, source_slug, external_id, source_tier, synthetic, scraped_at,
		start_date, end_date, start_time, end_time, all_day,
		title, description, summary, image_url, source_image_url, external_url,
		category_slugs, is_free, price, price_info,
		venue_name, address, city, province, region, postal_code, country,
		latitude, longitude, location_type
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventValues(ev)...,
	)
	return err
}

func updateEvent(ctx context.Context, tx *sql.Tx, ev *models.Event) error {
	values := eventValues(ev)
	// Drop the leading id from the insert column order and append it for the WHERE clause.
	values = append(values[1:], ev.ID)
	_, err := tx.ExecContext(ctx, `UPDATE events SET
		source_slug = ?, external_id = ?, source_tier = ?, synthetic = ?, scraped_at = ?,
		start_date = ?, end_date = ?, start_time = ?, end_time = ?, all_day = ?,
		title = ?, description = ?, summary = ?, image_url = ?, source_image_url = ?, external_url = ?,
		category_slugs = ?, is_free = ?, price = ?, price_info = ?,
		venue_name = ?, address = ?, city = ?, province = ?, region = ?, postal_code = ?, country = ?,
		latitude = ?, longitude = ?, location_type = ?
		WHERE id = ?`,
		values...,
	)
	return err
}

func eventValues(ev *models.Event) []any {
	return []any{
		ev.ID, ev.SourceSlug, ev.ExternalID, string(ev.SourceTier), ev.Synthetic, ev.ScrapedAt,
		ev.StartDate, ev.EndDate, ev.StartTime, ev.EndTime, ev.AllDay,
		ev.Title, ev.Description, ev.Summary, ev.ImageURL, ev.SourceImageURL, ev.ExternalURL,
		strings.Join(ev.CategorySlugs, ","), int(ev.IsFree), ev.Price, ev.PriceInfo,
		ev.VenueName, ev.Address, ev.City, ev.Province, ev.Region, ev.PostalCode, ev.Country,
		ev.Latitude, ev.Longitude, string(ev.LocationType),
	}
}

func writeSatellites(ctx context.Context, tx *sql.Tx, ev *models.Event) error {
	if ev.Organizer != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_organizers (event_id, name, url, email, phone) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET name = excluded.name, url = excluded.url, email = excluded.email, phone = excluded.phone`,
			ev.ID, ev.Organizer.Name, ev.Organizer.URL, ev.Organizer.Email, ev.Organizer.Phone); err != nil {
			return fmt.Errorf("organizer: %w", err)
		}
	}
	if ev.Contact != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_contacts (event_id, email, phone, url) VALUES (?, ?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET email = excluded.email, phone = excluded.phone, url = excluded.url`,
			ev.ID, ev.Contact.Email, ev.Contact.Phone, ev.Contact.URL); err != nil {
			return fmt.Errorf("contact: %w", err)
		}
	}
	if ev.Registration != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_registrations (event_id, required, url, deadline) VALUES (?, ?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET required = excluded.required, url = excluded.url, deadline = excluded.deadline`,
			ev.ID, ev.Registration.Required, ev.Registration.URL, ev.Registration.Deadline); err != nil {
			return fmt.Errorf("registration: %w", err)
		}
	}
	if ev.Accessibility != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_accessibility (event_id, wheelchair_accessible, notes) VALUES (?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET wheelchair_accessible = excluded.wheelchair_accessible, notes = excluded.notes`,
			ev.ID, int(ev.Accessibility.WheelchairAccessible), ev.Accessibility.Notes); err != nil {
			return fmt.Errorf("accessibility: %w", err)
		}
	}
	if ev.OnlineDetails != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_online_details (event_id, platform, join_url) VALUES (?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET platform = excluded.platform, join_url = excluded.join_url`,
			ev.ID, ev.OnlineDetails.Platform, ev.OnlineDetails.JoinURL); err != nil {
			return fmt.Errorf("online details: %w", err)
		}
	}
	for _, c := range ev.Contributions {
		if err := writeContribution(ctx, tx, ev.ID, c); err != nil {
			return fmt.Errorf("contribution: %w", err)
		}
	}
	return nil
}

func writeContribution(ctx context.Context, tx *sql.Tx, eventID string, c models.SourceContribution) error {
	c.EventID = eventID
	_, err := tx.ExecContext(ctx, `INSERT INTO source_contributions
		(event_id, source_slug, external_id, fields_contributed, quality_score, is_primary, contributed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id, source_slug) DO UPDATE SET
			external_id = excluded.external_id, fields_contributed = excluded.fields_contributed,
			quality_score = excluded.quality_score, is_primary = excluded.is_primary, contributed_at = excluded.contributed_at`,
		c.EventID, c.SourceSlug, c.ExternalID, strings.Join(c.FieldsContributed, ","), c.QualityScore, c.IsPrimary, c.ContributedAt)
	return err
}
