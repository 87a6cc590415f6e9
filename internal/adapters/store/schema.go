package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS email_accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		provider TEXT NOT NULL,
		imap_host TEXT NOT NULL,
		imap_port INTEGER NOT NULL DEFAULT 993,
		username TEXT NOT NULL,
		encrypted_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_check_time TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processed_emails (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES email_accounts(id),
		message_id TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		sender TEXT NOT NULL DEFAULT '',
		recipient TEXT NOT NULL DEFAULT '',
		received_date TIMESTAMP NOT NULL,
		content_preview TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL DEFAULT 'neutral',
		priority TEXT NOT NULL DEFAULT 'normal',
		has_attachments BOOLEAN NOT NULL DEFAULT 0,
		telegram_sent BOOLEAN NOT NULL DEFAULT 0,
		telegram_sent_at TIMESTAMP NULL,
		notification_status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (account_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_emails_received ON processed_emails(received_date)`,
	`CREATE TABLE IF NOT EXISTS ai_config (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		api_key_encrypted TEXT NOT NULL DEFAULT '',
		max_tokens INTEGER NOT NULL DEFAULT 150,
		temperature REAL NOT NULL DEFAULT 0.3,
		custom_prompt TEXT NOT NULL DEFAULT '',
		enable_sentiment_analysis BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifier_config (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL DEFAULT 'telegram',
		bot_token TEXT NOT NULL DEFAULT '',
		chat_id TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		message TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'info',
		account_id TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_system_logs_created ON system_logs(created_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS email_accounts (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		provider VARCHAR(32) NOT NULL,
		imap_host VARCHAR(255) NOT NULL,
		imap_port INT NOT NULL DEFAULT 993,
		username VARCHAR(255) NOT NULL,
		encrypted_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_check_time DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processed_emails (
		id VARCHAR(36) PRIMARY KEY,
		account_id VARCHAR(36) NOT NULL,
		message_id VARCHAR(512) NOT NULL,
		subject TEXT NOT NULL,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		received_date DATETIME(6) NOT NULL,
		content_preview TEXT NOT NULL,
		summary TEXT NOT NULL,
		sentiment VARCHAR(16) NOT NULL DEFAULT 'neutral',
		priority VARCHAR(16) NOT NULL DEFAULT 'normal',
		has_attachments BOOLEAN NOT NULL DEFAULT FALSE,
		telegram_sent BOOLEAN NOT NULL DEFAULT FALSE,
		telegram_sent_at DATETIME(6) NULL,
		notification_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_account_message (account_id, message_id),
		INDEX idx_processed_emails_received (received_date),
		FOREIGN KEY (account_id) REFERENCES email_accounts(id)
	)`,
	`CREATE TABLE IF NOT EXISTS ai_config (
		id VARCHAR(36) PRIMARY KEY,
		provider VARCHAR(32) NOT NULL,
		model VARCHAR(128) NOT NULL DEFAULT '',
		api_key_encrypted TEXT NOT NULL,
		max_tokens INT NOT NULL DEFAULT 150,
		temperature DOUBLE NOT NULL DEFAULT 0.3,
		custom_prompt TEXT NOT NULL,
		enable_sentiment_analysis BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifier_config (
		id VARCHAR(36) PRIMARY KEY,
		channel VARCHAR(16) NOT NULL DEFAULT 'telegram',
		bot_token VARCHAR(255) NOT NULL DEFAULT '',
		chat_id VARCHAR(255) NOT NULL,
		username VARCHAR(255) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id VARCHAR(36) PRIMARY KEY,
		event_type VARCHAR(64) NOT NULL,
		message TEXT NOT NULL,
		severity VARCHAR(16) NOT NULL DEFAULT 'info',
		account_id VARCHAR(36) NOT NULL DEFAULT '',
		metadata TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_system_logs_created (created_at)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS email_accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		provider TEXT NOT NULL,
		imap_host TEXT NOT NULL,
		imap_port INTEGER NOT NULL DEFAULT 993,
		username TEXT NOT NULL,
		encrypted_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_check_time TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processed_emails (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES email_accounts(id),
		message_id TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		sender TEXT NOT NULL DEFAULT '',
		recipient TEXT NOT NULL DEFAULT '',
		received_date TIMESTAMPTZ NOT NULL,
		content_preview TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL DEFAULT 'neutral',
		priority TEXT NOT NULL DEFAULT 'normal',
		has_attachments BOOLEAN NOT NULL DEFAULT FALSE,
		telegram_sent BOOLEAN NOT NULL DEFAULT FALSE,
		telegram_sent_at TIMESTAMPTZ NULL,
		notification_status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (account_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_processed_emails_received ON processed_emails(received_date)`,
	`CREATE TABLE IF NOT EXISTS ai_config (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		api_key_encrypted TEXT NOT NULL DEFAULT '',
		max_tokens INTEGER NOT NULL DEFAULT 150,
		temperature DOUBLE PRECISION NOT NULL DEFAULT 0.3,
		custom_prompt TEXT NOT NULL DEFAULT '',
		enable_sentiment_analysis BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifier_config (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL DEFAULT 'telegram',
		bot_token TEXT NOT NULL DEFAULT '',
		chat_id TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		message TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'info',
		account_id TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_system_logs_created ON system_logs(created_at)`,
}
