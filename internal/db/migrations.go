package db

import (
	"fmt"

	"gorm.io/gorm"
)

func enumType(name string, values string) string {
	return fmt.Sprintf(`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = '%s') THEN
			CREATE TYPE %s AS ENUM (%s);
		END IF;
	END
	$$;`, name, name, values)
}

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	enumType("cart_status", `'DRAFT', 'SENT', 'VENDOR_APPROVED', 'APPROVED', 'INVOICE_SENT', 'PAID'`),
	enumType("finalization_mode", `'NEGOTIATED', 'DIRECT'`),
	enumType("payment_timing", `'AT_LISTING', 'AT_CLOSING'`),
	enumType("payment_method", `'CARD', 'ACH', 'CHECK'`),
	enumType("communication_mode", `'FIRST_COME_FIRST_SERVE', 'REVIEW_AND_APPROVE'`),
	enumType("negotiation_status", `'PENDING', 'PROVIDER_ACCEPTED', 'AGENT_APPROVED'`),
	enumType("message_target_type", `'AGENT_SUMMARY', 'WORK_ORDER', 'INVOICE'`),
	`CREATE TABLE IF NOT EXISTS catalog_services (
		service_key VARCHAR(64) PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		base_price_cents BIGINT NOT NULL CHECK (base_price_cents >= 0),
		supplier_type VARCHAR(64) NOT NULL,
		default_selected BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		supplier_type VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS service_vendor_links (
		service_key VARCHAR(64) NOT NULL REFERENCES catalog_services(service_key),
		vendor_id UUID NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
		quote_cents BIGINT NOT NULL CHECK (quote_cents >= 0),
		priority INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (service_key, vendor_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_service_vendor_links_priority ON service_vendor_links (service_key, priority);`,
	`CREATE TABLE IF NOT EXISTS agent_settings (
		agent_id UUID PRIMARY KEY,
		commission_percent NUMERIC(7,2) NOT NULL CHECK (commission_percent >= 0),
		auto_apply BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		sequence_label VARCHAR(32) NOT NULL,
		access_token VARCHAR(64) NOT NULL,
		property_address TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		owner_email TEXT,
		owner_phone TEXT,
		agent_id UUID NOT NULL,
		agent_name TEXT NOT NULL DEFAULT '',
		agent_email TEXT NOT NULL DEFAULT '',
		status cart_status NOT NULL DEFAULT 'DRAFT',
		finalization_mode finalization_mode,
		payment_timing payment_timing NOT NULL,
		payment_method payment_method NOT NULL,
		communication_mode communication_mode,
		total_cents BIGINT NOT NULL DEFAULT 0,
		sent_at TIMESTAMPTZ,
		approved_at TIMESTAMPTZ,
		vendor_approved_at TIMESTAMPTZ,
		invoiced_at TIMESTAMPTZ,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_carts_sequence_label ON carts (sequence_label);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_carts_access_token ON carts (access_token);`,
	`CREATE INDEX IF NOT EXISTS idx_carts_agent_status ON carts (agent_id, status);`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		service_key VARCHAR(64) NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		supplier_type VARCHAR(64) NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		selected BOOLEAN NOT NULL DEFAULT FALSE,
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		vendor_id UUID REFERENCES vendors(id),
		note TEXT,
		negotiation_status negotiation_status NOT NULL DEFAULT 'PENDING',
		provider_response TEXT,
		counter_quote_cents BIGINT,
		available_on DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_items_cart_service ON cart_items (cart_id, service_key);`,
	`CREATE TABLE IF NOT EXISTS price_audits (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		cart_item_id UUID NOT NULL REFERENCES cart_items(id) ON DELETE CASCADE,
		vendor_id UUID REFERENCES vendors(id),
		raw_cents BIGINT NOT NULL,
		commission_percent NUMERIC(7,2) NOT NULL,
		displayed_cents BIGINT NOT NULL,
		margin_cents BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_price_audits_item_created ON price_audits (cart_item_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS outbound_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		target_type message_target_type NOT NULL,
		transition VARCHAR(32) NOT NULL,
		recipient TEXT,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_outbound_messages_cart ON outbound_messages (cart_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS cart_counters (
		name VARCHAR(64) PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	);`,
	`INSERT INTO cart_counters (name, value)
		SELECT 'cart_sequence', COUNT(*) FROM carts
		ON CONFLICT (name) DO NOTHING;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
