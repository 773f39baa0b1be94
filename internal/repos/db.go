package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"shoptill/internal/domain"
)

func OpenDB(dsn string, seedDemo bool) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Staff accounts must exist even without demo data (idempotent).
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	if seedDemo {
		if err := seedIfEmpty(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Catalog reference data (informational for the settlement core)
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS brands(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS suppliers(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  contact_info TEXT
);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  category_id TEXT REFERENCES categories(id) ON DELETE RESTRICT,
  brand_id TEXT REFERENCES brands(id) ON DELETE RESTRICT,
  supplier_id TEXT REFERENCES suppliers(id) ON DELETE RESTRICT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_sku      ON products(sku);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

-- Inventory: one row per product; qty mutated only via the ledger
CREATE TABLE IF NOT EXISTS inventory(
  product_id TEXT PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
  qty INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
  low_stock_threshold INTEGER NOT NULL DEFAULT 5 CHECK (low_stock_threshold >= 1),
  updated_at TEXT
);

-- Immutable audit trail of every inventory mutation
CREATE TABLE IF NOT EXISTS stock_adjustments(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  delta INTEGER NOT NULL,
  adjustment_type TEXT NOT NULL CHECK (adjustment_type IN ('addition','reduction','correction','return')),
  reason TEXT NOT NULL,
  adjusted_by TEXT NOT NULL REFERENCES users(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_adjustments_product ON stock_adjustments(product_id);
CREATE INDEX IF NOT EXISTS idx_adjustments_created ON stock_adjustments(created_at);

-- Customers
CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  total_purchase_value NUMERIC NOT NULL DEFAULT 0 CHECK (total_purchase_value >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS shop_assistants(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_id TEXT NULL REFERENCES customers(id) ON DELETE RESTRICT,
  salesperson_id TEXT NOT NULL REFERENCES users(id),
  assistant_id TEXT NULL REFERENCES shop_assistants(id),
  subtotal NUMERIC NOT NULL DEFAULT 0 CHECK (subtotal >= 0),
  tax NUMERIC NOT NULL DEFAULT 0 CHECK (tax >= 0),
  total NUMERIC NOT NULL DEFAULT 0 CHECK (total >= 0),
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed','cancelled')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_customer   ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price NUMERIC NOT NULL CHECK (price >= 0),
  status TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

-- One payment per order, written once at settlement
CREATE TABLE IF NOT EXISTS transactions(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE REFERENCES orders(id) ON DELETE RESTRICT,
  payment_method TEXT NOT NULL CHECK (payment_method IN ('cash','card','upi')),
  amount_paid NUMERIC NOT NULL CHECK (amount_paid >= 0),
  change_amount NUMERIC NOT NULL DEFAULT 0 CHECK (change_amount >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Staff & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('SALES','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedUsers ensures one salesperson and one admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-sam", "sam@shoptill.test", "Sam", domain.RoleSales, "Passw0rd!"),
		mk("u-rita", "rita@shoptill.test", "Rita", domain.RoleSales, "Passw0rd!"),
		mk("u-admin", "admin@shoptill.test", "Admin", domain.RoleAdmin, "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog/inventory/customers")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('beverages','Beverages'),
	  ('snacks','Snacks'),
	  ('household','Household')`)

	tx.MustExec(`INSERT INTO brands(id,name) VALUES
	  ('acme','Acme'),
	  ('northco','NorthCo')`)

	tx.MustExec(`INSERT INTO suppliers(id,name,contact_info) VALUES
	  ('sup-central','Central Wholesale','orders@centralwholesale.test')`)

	tx.MustExec(`INSERT INTO products(id,sku,name,description,price,category_id,brand_id,supplier_id) VALUES
	  ('p-cola','BEV-COLA-330','Cola 330ml','Single can',1.50,'beverages','acme','sup-central'),
	  ('p-chips','SNK-CHIPS-150','Potato Chips 150g','Salted',2.25,'snacks','northco','sup-central'),
	  ('p-soap','HH-SOAP-4','Soap Bar 4-pack','Unscented',3.80,'household','acme','sup-central')`)

	tx.MustExec(`INSERT INTO inventory(product_id,qty,low_stock_threshold) VALUES
	  ('p-cola',48,12),
	  ('p-chips',30,10),
	  ('p-soap',16,5)`)

	tx.MustExec(`INSERT INTO customers(id,name,email,phone) VALUES
	  ('c-mira','Mira Akter','mira@example.test','+8801711000001'),
	  ('c-joy','Joy Das','','+8801711000002')`)

	tx.MustExec(`INSERT INTO shop_assistants(id,name) VALUES
	  ('a-nadia','Nadia'),
	  ('a-rahim','Rahim')`)

	return tx.Commit()
}
