package postgres

import (
	"context"
	"fmt"
)

const (
	constraintCampsiteOverlap = "campsite_bookings_no_overlap"
	constraintAssetOverlap    = "asset_hires_no_overlap"
	constraintStockNegative   = "skus_current_stock_check"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS events (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            starts_on DATE NOT NULL,
            ends_on DATE NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS ticket_types (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            name TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL,
            role TEXT NOT NULL DEFAULT ''
        )`,
	`CREATE TABLE IF NOT EXISTS persons (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT UNIQUE REFERENCES users(id),
            manager_user_id BIGINT REFERENCES users(id),
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS attendees (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            person_id BIGINT NOT NULL REFERENCES persons(id),
            ticket_type_id BIGINT NOT NULL REFERENCES ticket_types(id),
            code TEXT UNIQUE NOT NULL,
            status TEXT NOT NULL,
            is_volunteer BOOLEAN NOT NULL DEFAULT FALSE,
            arrival_date DATE,
            departure_date DATE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            event_id BIGINT NOT NULL REFERENCES events(id),
            total NUMERIC(12,2) NOT NULL DEFAULT 0,
            payment_status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            attendee_id BIGINT NOT NULL REFERENCES attendees(id),
            kind TEXT NOT NULL,
            ref_id BIGINT NOT NULL,
            price NUMERIC(12,2) NOT NULL,
            refunded_at TIMESTAMPTZ
        )`,
	`CREATE TABLE IF NOT EXISTS campsites (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            name TEXT NOT NULL,
            nightly_rate NUMERIC(12,2) NOT NULL,
            full_event_rate NUMERIC(12,2)
        )`,
	`CREATE TABLE IF NOT EXISTS campsite_bookings (
            id BIGSERIAL PRIMARY KEY,
            campsite_id BIGINT NOT NULL REFERENCES campsites(id),
            order_item_id BIGINT NOT NULL REFERENCES order_items(id) ON DELETE CASCADE,
            check_in DATE NOT NULL,
            check_out DATE NOT NULL,
            CONSTRAINT campsite_bookings_no_overlap EXCLUDE USING gist (
                campsite_id WITH =, daterange(check_in, check_out) WITH &&
            )
        )`,
	`CREATE TABLE IF NOT EXISTS skus (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            name TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL,
            current_stock INTEGER NOT NULL CONSTRAINT skus_current_stock_check CHECK (current_stock >= 0),
            active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
	`CREATE TABLE IF NOT EXISTS asset_types (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            name TEXT NOT NULL,
            nightly_rate NUMERIC(12,2) NOT NULL,
            full_event_rate NUMERIC(12,2)
        )`,
	`CREATE TABLE IF NOT EXISTS asset_items (
            id BIGSERIAL PRIMARY KEY,
            asset_type_id BIGINT NOT NULL REFERENCES asset_types(id),
            label TEXT NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS asset_hires (
            id BIGSERIAL PRIMARY KEY,
            asset_item_id BIGINT NOT NULL REFERENCES asset_items(id),
            order_item_id BIGINT NOT NULL REFERENCES order_items(id) ON DELETE CASCADE,
            check_in DATE NOT NULL,
            check_out DATE NOT NULL,
            CONSTRAINT asset_hires_no_overlap EXCLUDE USING gist (
                asset_item_id WITH =, daterange(check_in, check_out) WITH &&
            )
        )`,
	`CREATE TABLE IF NOT EXISTS subevents (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            name TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL DEFAULT 0,
            capacity INTEGER,
            starts_at TIMESTAMPTZ NOT NULL,
            ends_at TIMESTAMPTZ NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS subevent_registrations (
            id BIGSERIAL PRIMARY KEY,
            subevent_id BIGINT NOT NULL REFERENCES subevents(id),
            order_item_id BIGINT NOT NULL REFERENCES order_items(id) ON DELETE CASCADE
        )`,
	`CREATE TABLE IF NOT EXISTS payment_transactions (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            amount NUMERIC(12,2) NOT NULL,
            reference TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS duty_slots (
            id BIGSERIAL PRIMARY KEY,
            event_id BIGINT NOT NULL REFERENCES events(id),
            slot_date DATE NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            attendee_id BIGINT REFERENCES attendees(id)
        )`,
	`CREATE TABLE IF NOT EXISTS outbox (
            id BIGSERIAL PRIMARY KEY,
            event_id UUID UNIQUE NOT NULL,
            event_type TEXT NOT NULL,
            key TEXT NOT NULL,
            payload JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            locked_until TIMESTAMPTZ,
            sent_at TIMESTAMPTZ
        )`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attendees_person ON attendees(event_id, person_id)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(id) WHERE sent_at IS NULL`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
