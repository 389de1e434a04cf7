package database

// Migrations is the ordered schema history. New schema changes append a new
// entry; existing entries never change once released.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "001_initial_schema",
		SQL: `
			CREATE TABLE IF NOT EXISTS stores (
				location_id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				chain TEXT,
				address TEXT,
				city TEXT,
				state TEXT,
				zip_code TEXT,
				region TEXT,
				division TEXT,
				latitude REAL,
				longitude REAL,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_stores_state ON stores(state);
			CREATE INDEX IF NOT EXISTS idx_stores_chain ON stores(chain);
			CREATE INDEX IF NOT EXISTS idx_stores_location ON stores(latitude, longitude);

			CREATE TABLE IF NOT EXISTS products (
				upc TEXT PRIMARY KEY,
				description TEXT NOT NULL,
				brand TEXT,
				category TEXT,
				size TEXT,
				is_tracked INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE IF NOT EXISTS daily_prices (
				location_id TEXT NOT NULL,
				upc TEXT NOT NULL,
				price_date TEXT NOT NULL,
				regular_price REAL,
				promo_price REAL,
				fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (location_id, upc, price_date),
				FOREIGN KEY (location_id) REFERENCES stores(location_id),
				FOREIGN KEY (upc) REFERENCES products(upc)
			);
			CREATE INDEX IF NOT EXISTS idx_daily_prices_upc_date ON daily_prices(upc, price_date);
			CREATE INDEX IF NOT EXISTS idx_daily_prices_location ON daily_prices(location_id);

			CREATE TABLE IF NOT EXISTS request_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				endpoint TEXT NOT NULL,
				status_code INTEGER NOT NULL,
				item_count INTEGER NOT NULL DEFAULT 0,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_request_log_created ON request_log(created_at);
		`,
	},
	{
		Version: 2,
		Name:    "002_harvest_tasks",
		SQL: `
			CREATE TABLE IF NOT EXISTS harvest_tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				status TEXT NOT NULL DEFAULT 'pending',
				price_date TEXT NOT NULL,
				total_stores INTEGER NOT NULL DEFAULT 0,
				processed_stores INTEGER NOT NULL DEFAULT 0,
				failed_stores INTEGER NOT NULL DEFAULT 0,
				rows_upserted INTEGER NOT NULL DEFAULT 0,
				requests_issued INTEGER NOT NULL DEFAULT 0,
				dry_run INTEGER NOT NULL DEFAULT 0,
				start_time TIMESTAMP,
				end_time TIMESTAMP,
				error_message TEXT,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_harvest_tasks_status ON harvest_tasks(status);
		`,
	},
}
