package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one pooled connection serializes
	// transactions instead of failing them with SQLITE_BUSY, and keeps a
	// ":memory:" database alive for the life of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Catalog (owned by catalog administration; read here)
CREATE TABLE IF NOT EXISTS courses(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  price NUMERIC CHECK (price IS NULL OR price >= 0),  -- NULL means free
  published INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Discount codes
CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,                        -- stored upper case
  discount_percent NUMERIC CHECK (discount_percent IS NULL OR (discount_percent > 0 AND discount_percent <= 100)),
  discount_amount NUMERIC CHECK (discount_amount IS NULL OR discount_amount > 0),
  max_uses INTEGER CHECK (max_uses IS NULL OR max_uses > 0),
  current_uses INTEGER NOT NULL DEFAULT 0 CHECK (current_uses >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  CHECK ((discount_percent IS NULL) <> (discount_amount IS NULL)),
  CHECK (max_uses IS NULL OR current_uses <= max_uses)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total NUMERIC NOT NULL CHECK (total >= 0),
  status TEXT NOT NULL CHECK (status IN ('PENDING','PENDING_REVIEW','COMPLETED','CANCELLED')),
  coupon_id TEXT REFERENCES coupons(id),
  payment_evidence_url TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);

CREATE TABLE IF NOT EXISTS order_lines(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  course_id TEXT NOT NULL REFERENCES courses(id),
  price NUMERIC NOT NULL CHECK (price >= 0),        -- snapshot at purchase time
  UNIQUE (order_id, course_id)
);

-- Entitlements: at most one per (user, course)
CREATE TABLE IF NOT EXISTS entitlements(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  course_id TEXT NOT NULL REFERENCES courses(id),
  created_at DATETIME NOT NULL,
  UNIQUE (user_id, course_id)
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// SeedDemo inserts demo courses, coupons and users. Safe to run on every start.
func SeedDemo(db *sqlx.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO courses(id, title, price, published) VALUES
		  ('go-basics',     'Go Basics',                   NULL,   1),
		  ('go-concurrency','Concurrency in Go',           1000,   1),
		  ('sql-deep-dive', 'SQL Deep Dive',               49.99,  1),
		  ('k8s-ops',       'Kubernetes for Operators',    129.00, 1),
		  ('draft-course',  'Unreleased Draft',            10,     0)
		ON CONFLICT(id) DO NOTHING
	`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO coupons(id, code, discount_percent, discount_amount, max_uses, active) VALUES
		  ('cp-welcome10', 'WELCOME10', 10,   NULL, NULL, 1),
		  ('cp-flat20',    'FLAT20',    NULL, 20,   100,  1),
		  ('cp-launch',    'LAUNCH',    50,   NULL, 1,    1)
		ON CONFLICT(id) DO NOTHING
	`); err != nil {
		return err
	}

	type u struct{ ID, Email, Name, Role string }
	users := []u{
		{"u-alice", "alice@courseshop.test", "Alice", "USER"},
		{"u-bob", "bob@courseshop.test", "Bob", "USER"},
		{"u-admin", "admin@courseshop.test", "Admin", "ADMIN"},
	}
	for _, x := range users {
		h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, string(h), x.Role); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("demo data ensured", zap.Int("users", len(users)))
	return nil
}
