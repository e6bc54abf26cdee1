// Package migration holds the versioned relational schema. Each step is
// explicit DDL with a matching rollback so the schema can be walked in
// both directions with cmd/migrate.
package migration

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// TableName is the bookkeeping table gormigrate writes applied IDs to.
const TableName = "schema_migrations"

// New returns a migrator over db with every known migration.
func New(db *gorm.DB) *gormigrate.Gormigrate {
	opts := *gormigrate.DefaultOptions
	opts.TableName = TableName
	opts.UseTransaction = true
	opts.ValidateUnknownMigrations = true
	return gormigrate.New(db, &opts, Migrations())
}

// Migrations returns the ordered migration list.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		step("202401010001_extensions_and_enums", extensionsAndEnumsUp, extensionsAndEnumsDown),
		step("202401010002_companies", companiesUp, companiesDown),
		step("202401010003_users", usersUp, usersDown),
		step("202401010004_products", productsUp, productsDown),
		step("202401010005_warehouses", warehousesUp, warehousesDown),
		step("202401010006_inventory", inventoryUp, inventoryDown),
		step("202401010007_batches", batchesUp, batchesDown),
		step("202401010008_orders", ordersUp, ordersDown),
		step("202401010009_invitations", invitationsUp, invitationsDown),
		step("202401010010_user_audit_logs", auditLogsUp, auditLogsDown),
		step("202401010011_secondary_indexes", secondaryIndexesUp, secondaryIndexesDown),
	}
}

func step(id string, up, down []string) *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: id,
		Migrate: func(tx *gorm.DB) error {
			return execAll(tx, id, up)
		},
		Rollback: func(tx *gorm.DB) error {
			return execAll(tx, id, down)
		},
	}
}

func execAll(tx *gorm.DB, id string, stmts []string) error {
	for i, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %s statement %d: %w", id, i+1, err)
		}
	}
	return nil
}

var extensionsAndEnumsUp = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
	`CREATE TYPE company_type AS ENUM ('dealer', 'supplier')`,
	`CREATE TYPE company_status AS ENUM ('pending_verification', 'active', 'suspended', 'rejected')`,
	`CREATE TYPE subscription_tier AS ENUM ('free', 'basic', 'premium', 'enterprise')`,
	`CREATE TYPE verification_status AS ENUM ('unverified', 'pending', 'verified', 'rejected')`,
	`CREATE TYPE user_role AS ENUM ('admin', 'manager', 'staff')`,
	`CREATE TYPE user_status AS ENUM ('pending', 'active', 'inactive', 'suspended')`,
	`CREATE TYPE product_status AS ENUM ('active', 'inactive', 'out_of_stock', 'discontinued')`,
	`CREATE TYPE warehouse_status AS ENUM ('active', 'inactive', 'maintenance')`,
	`CREATE TYPE batch_status AS ENUM ('active', 'expired', 'depleted', 'quarantined')`,
	`CREATE TYPE order_status AS ENUM ('pending', 'confirmed', 'processing', 'shipped', 'delivered', 'cancelled', 'returned')`,
	`CREATE TYPE payment_status AS ENUM ('pending', 'paid', 'partially_paid', 'failed', 'refunded')`,
	`CREATE TYPE invitation_status AS ENUM ('pending', 'accepted', 'expired', 'revoked')`,
}

var extensionsAndEnumsDown = []string{
	`DROP TYPE IF EXISTS invitation_status`,
	`DROP TYPE IF EXISTS payment_status`,
	`DROP TYPE IF EXISTS order_status`,
	`DROP TYPE IF EXISTS batch_status`,
	`DROP TYPE IF EXISTS warehouse_status`,
	`DROP TYPE IF EXISTS product_status`,
	`DROP TYPE IF EXISTS user_status`,
	`DROP TYPE IF EXISTS user_role`,
	`DROP TYPE IF EXISTS verification_status`,
	`DROP TYPE IF EXISTS subscription_tier`,
	`DROP TYPE IF EXISTS company_status`,
	`DROP TYPE IF EXISTS company_type`,
}

var companiesUp = []string{
	`CREATE TABLE companies (
		id                  uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name                varchar(255) NOT NULL,
		type                company_type NOT NULL,
		tax_id              varchar(50) NOT NULL,
		business_license    varchar(100),
		address             text,
		contact_email       varchar(255),
		contact_phone       varchar(30),
		status              company_status NOT NULL DEFAULT 'pending_verification',
		subscription_tier   subscription_tier NOT NULL DEFAULT 'free',
		verification_status verification_status NOT NULL DEFAULT 'unverified',
		verified_at         timestamptz,
		verified_by         uuid,
		verification_notes  text,
		metadata            jsonb,
		created_at          timestamptz NOT NULL DEFAULT now(),
		updated_at          timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_companies_tax_id UNIQUE (tax_id)
	)`,
}

var companiesDown = []string{
	`DROP TABLE IF EXISTS companies`,
}

var usersUp = []string{
	`CREATE TABLE users (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id    uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		email         varchar(255) NOT NULL,
		password_hash varchar(255) NOT NULL,
		first_name    varchar(100),
		last_name     varchar(100),
		role          user_role NOT NULL DEFAULT 'staff',
		status        user_status NOT NULL DEFAULT 'pending',
		last_login_at timestamptz,
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_users_email UNIQUE (email)
	)`,
	`CREATE INDEX idx_users_company_id ON users (company_id)`,
	`ALTER TABLE companies ADD CONSTRAINT fk_companies_verified_by
		FOREIGN KEY (verified_by) REFERENCES users(id) ON DELETE SET NULL`,
}

var usersDown = []string{
	`ALTER TABLE companies DROP CONSTRAINT IF EXISTS fk_companies_verified_by`,
	`DROP TABLE IF EXISTS users`,
}

var productsUp = []string{
	`CREATE TABLE product_categories (
		id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id  uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name        varchar(100) NOT NULL,
		description text,
		parent_id   uuid REFERENCES product_categories(id) ON DELETE SET NULL,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_product_categories_company_name UNIQUE (company_id, name)
	)`,
	`CREATE TABLE products (
		id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		supplier_id    uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		category_id    uuid REFERENCES product_categories(id) ON DELETE SET NULL,
		name           varchar(255) NOT NULL,
		sku            varchar(100) NOT NULL,
		description    text,
		base_price     numeric(12,2) NOT NULL CHECK (base_price >= 0),
		unit           varchar(30) NOT NULL DEFAULT 'unit',
		status         product_status NOT NULL DEFAULT 'active',
		specifications jsonb,
		created_at     timestamptz NOT NULL DEFAULT now(),
		updated_at     timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_products_supplier_sku UNIQUE (supplier_id, sku)
	)`,
	`CREATE INDEX idx_products_category_id ON products (category_id)`,
	`CREATE INDEX idx_products_status ON products (status)`,
}

var productsDown = []string{
	`DROP TABLE IF EXISTS products`,
	`DROP TABLE IF EXISTS product_categories`,
}

var warehousesUp = []string{
	`CREATE TABLE warehouses (
		id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id   uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name         varchar(255) NOT NULL,
		address      text,
		capacity     integer NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		contact_info varchar(255),
		status       warehouse_status NOT NULL DEFAULT 'active',
		created_at   timestamptz NOT NULL DEFAULT now(),
		updated_at   timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_warehouses_company_name UNIQUE (company_id, name)
	)`,
}

var warehousesDown = []string{
	`DROP TABLE IF EXISTS warehouses`,
}

var inventoryUp = []string{
	`CREATE TABLE inventory (
		id                uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		product_id        uuid NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		warehouse_id      uuid NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
		company_id        uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		quantity          numeric(14,3) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		unit              varchar(30) NOT NULL DEFAULT 'unit',
		min_threshold     numeric(14,3) NOT NULL DEFAULT 0 CHECK (min_threshold >= 0),
		max_threshold     numeric(14,3) NOT NULL DEFAULT 0 CHECK (max_threshold >= 0),
		reorder_point     numeric(14,3) NOT NULL DEFAULT 0,
		reorder_quantity  numeric(14,3) NOT NULL DEFAULT 0,
		auto_reorder      boolean NOT NULL DEFAULT false,
		last_restock_date timestamptz,
		status            varchar(20) NOT NULL DEFAULT 'in_stock'
			CHECK (status IN ('in_stock', 'low_stock', 'out_of_stock')),
		created_at        timestamptz NOT NULL DEFAULT now(),
		updated_at        timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_inventory_product_warehouse_company UNIQUE (product_id, warehouse_id, company_id)
	)`,
	`CREATE INDEX idx_inventory_company_id ON inventory (company_id)`,
	`CREATE INDEX idx_inventory_warehouse_id ON inventory (warehouse_id)`,
}

var inventoryDown = []string{
	`DROP TABLE IF EXISTS inventory`,
}

var batchesUp = []string{
	`CREATE TABLE batches (
		id                 uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		batch_number       varchar(100) NOT NULL,
		company_id         uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		product_id         uuid NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		warehouse_id       uuid NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
		quantity           numeric(14,3) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		unit_cost          numeric(12,2) NOT NULL DEFAULT 0 CHECK (unit_cost >= 0),
		manufacturing_date date,
		expiry_date        date,
		status             batch_status NOT NULL DEFAULT 'active',
		supplier_batch_ref varchar(100),
		created_at         timestamptz NOT NULL DEFAULT now(),
		updated_at         timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_batches_company_batch_number UNIQUE (company_id, batch_number),
		CONSTRAINT chk_batches_dates CHECK (
			expiry_date IS NULL OR manufacturing_date IS NULL OR expiry_date > manufacturing_date)
	)`,
	`CREATE INDEX idx_batches_product_id ON batches (product_id)`,
	`CREATE INDEX idx_batches_warehouse_id ON batches (warehouse_id)`,
}

var batchesDown = []string{
	`DROP TABLE IF EXISTS batches`,
}

var ordersUp = []string{
	`CREATE TABLE orders (
		id                  uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		order_number        varchar(50) NOT NULL,
		company_id          uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		customer_id         uuid REFERENCES users(id) ON DELETE SET NULL,
		customer_company_id uuid REFERENCES companies(id) ON DELETE SET NULL,
		status              order_status NOT NULL DEFAULT 'pending',
		payment_status      payment_status NOT NULL DEFAULT 'pending',
		payment_method      varchar(50),
		subtotal            numeric(14,2) NOT NULL DEFAULT 0,
		tax_amount          numeric(14,2) NOT NULL DEFAULT 0,
		discount_amount     numeric(14,2) NOT NULL DEFAULT 0 CHECK (discount_amount >= 0),
		total_amount        numeric(14,2) NOT NULL DEFAULT 0 CHECK (total_amount >= 0),
		shipping_address    jsonb,
		notes               text,
		delivery_date       timestamptz,
		created_at          timestamptz NOT NULL DEFAULT now(),
		updated_at          timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_orders_company_order_number UNIQUE (company_id, order_number)
	)`,
	`CREATE INDEX idx_orders_customer_id ON orders (customer_id)`,
	`CREATE TABLE order_items (
		id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id     uuid NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id   uuid NOT NULL REFERENCES products(id) ON DELETE NO ACTION,
		warehouse_id uuid REFERENCES warehouses(id) ON DELETE SET NULL,
		quantity     numeric(14,3) NOT NULL CHECK (quantity > 0),
		unit_price   numeric(12,2) NOT NULL CHECK (unit_price >= 0),
		discount     numeric(12,2) NOT NULL DEFAULT 0 CHECK (discount >= 0),
		total_price  numeric(14,2) NOT NULL,
		created_at   timestamptz NOT NULL DEFAULT now(),
		updated_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX idx_order_items_order_id ON order_items (order_id)`,
	`CREATE INDEX idx_order_items_product_id ON order_items (product_id)`,
	`CREATE TABLE order_history (
		id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id        uuid NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		previous_status order_status,
		new_status      order_status NOT NULL,
		changed_by      uuid REFERENCES users(id) ON DELETE SET NULL,
		notes           text,
		created_at      timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX idx_order_history_order_id ON order_history (order_id, created_at)`,
}

var ordersDown = []string{
	`DROP TABLE IF EXISTS order_history`,
	`DROP TABLE IF EXISTS order_items`,
	`DROP TABLE IF EXISTS orders`,
}

var invitationsUp = []string{
	`CREATE TABLE invitations (
		id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id  uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		email       varchar(255) NOT NULL,
		code        varchar(64) NOT NULL,
		role        user_role NOT NULL DEFAULT 'staff',
		invited_by  uuid REFERENCES users(id) ON DELETE SET NULL,
		status      invitation_status NOT NULL DEFAULT 'pending',
		expires_at  timestamptz NOT NULL,
		accepted_at timestamptz,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT uq_invitations_code UNIQUE (code)
	)`,
	`CREATE UNIQUE INDEX uq_invitations_pending_email
		ON invitations (company_id, lower(email)) WHERE status = 'pending'`,
	`CREATE INDEX idx_invitations_company_id ON invitations (company_id)`,
}

var invitationsDown = []string{
	`DROP TABLE IF EXISTS invitations`,
}

var auditLogsUp = []string{
	`CREATE TABLE user_audit_logs (
		id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id      uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		company_id   uuid NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		performed_by uuid REFERENCES users(id) ON DELETE SET NULL,
		action       varchar(50) NOT NULL,
		changes      jsonb,
		ip_address   varchar(45),
		user_agent   text,
		created_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX idx_user_audit_logs_user_id ON user_audit_logs (user_id, created_at DESC)`,
	`CREATE INDEX idx_user_audit_logs_company_id ON user_audit_logs (company_id, created_at DESC)`,
}

var auditLogsDown = []string{
	`DROP TABLE IF EXISTS user_audit_logs`,
}

var secondaryIndexesUp = []string{
	`CREATE INDEX idx_inventory_low_stock ON inventory (company_id) WHERE quantity <= min_threshold`,
	`CREATE INDEX idx_batches_expiry ON batches (company_id, expiry_date) WHERE status = 'active'`,
	`CREATE INDEX idx_orders_company_created ON orders (company_id, created_at DESC)`,
	`CREATE INDEX idx_orders_customer_company_created ON orders (customer_company_id, created_at DESC)`,
	`CREATE INDEX idx_products_lower_name ON products (lower(name))`,
}

var secondaryIndexesDown = []string{
	`DROP INDEX IF EXISTS idx_products_lower_name`,
	`DROP INDEX IF EXISTS idx_orders_customer_company_created`,
	`DROP INDEX IF EXISTS idx_orders_company_created`,
	`DROP INDEX IF EXISTS idx_batches_expiry`,
	`DROP INDEX IF EXISTS idx_inventory_low_stock`,
}
