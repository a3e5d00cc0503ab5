// Agenda Cultural Ingestor
// Copyright 2026 Agenda Cultural contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agendacultural/ingestor

package persist

// schemaStatements creates the event table and its satellite tables.
// The core never manages migrations beyond this bootstrap DDL (spec §6:
// "No schema DDL is managed by the core" refers to the Persister's
// runtime operations, not process startup).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		source_slug TEXT NOT NULL,
		external_id TEXT NOT NULL,
		source_tier TEXT,
		synthetic BOOLEAN,
		scraped_at TIMESTAMP,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP,
		start_time TIMESTAMP,
		end_time TIMESTAMP,
		all_day BOOLEAN,
		title TEXT NOT NULL,
		description TEXT,
		summary TEXT,
		image_url TEXT,
		source_image_url TEXT,
		external_url TEXT,
		category_slugs TEXT,
		is_free SMALLINT,
		price DOUBLE,
		price_info TEXT,
		venue_name TEXT,
		address TEXT,
		city TEXT,
		province TEXT,
		region TEXT,
		postal_code TEXT,
		country TEXT,
		latitude DOUBLE,
		longitude DOUBLE,
		location_type TEXT,
		UNIQUE (source_slug, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_organizers (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		name TEXT, url TEXT, email TEXT, phone TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS event_contacts (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		email TEXT, phone TEXT, url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS event_registrations (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		required BOOLEAN, url TEXT, deadline TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS event_accessibility (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		wheelchair_accessible SMALLINT, notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS event_online_details (
		event_id TEXT PRIMARY KEY REFERENCES events(id),
		platform TEXT, join_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS source_contributions (
		event_id TEXT NOT NULL REFERENCES events(id),
		source_slug TEXT NOT NULL,
		external_id TEXT NOT NULL,
		fields_contributed TEXT,
		quality_score INTEGER,
		is_primary BOOLEAN,
		contributed_at TIMESTAMP,
		PRIMARY KEY (event_id, source_slug)
	)`,
}
