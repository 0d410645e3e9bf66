package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	avatar_path TEXT,
	bio TEXT DEFAULT '',
	post_count INTEGER DEFAULT 0,
	reputation_score INTEGER DEFAULT 0,
	last_seen DATETIME
);
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	sort_order INTEGER DEFAULT 0
);
CREATE TABLE IF NOT EXISTS subforums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	sort_order INTEGER DEFAULT 0,
	icon_color TEXT DEFAULT '#4A9B9B',
	icon_label TEXT DEFAULT 'SF',
	thread_count INTEGER DEFAULT 0,
	post_count INTEGER DEFAULT 0,
	last_thread_id INTEGER,
	last_post_at DATETIME,
	last_post_username TEXT,
	FOREIGN KEY (category_id) REFERENCES categories(id)
);
CREATE TABLE IF NOT EXISTS threads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subforum_id INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	is_sticky BOOLEAN DEFAULT 0,
	is_locked BOOLEAN DEFAULT 0,
	is_announcement BOOLEAN DEFAULT 0,
	view_count INTEGER DEFAULT 0,
	reply_count INTEGER DEFAULT 0,
	last_post_at DATETIME NOT NULL,
	last_post_user_id TEXT,
	last_post_username TEXT,
	FOREIGN KEY (subforum_id) REFERENCES subforums(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	edited_at DATETIME,
	is_edited BOOLEAN DEFAULT 0,
	FOREIGN KEY (thread_id) REFERENCES threads(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS reactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	reaction_type TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(post_id, user_id, reaction_type),
	FOREIGN KEY (post_id) REFERENCES posts(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	reporter_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	reviewed_by TEXT,
	reviewed_at DATETIME,
	FOREIGN KEY (post_id) REFERENCES posts(id),
	FOREIGN KEY (reporter_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS moderation_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	moderator_id TEXT NOT NULL,
	action TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	reason TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (moderator_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS forum_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME
);

-- --- INDEXES ---
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_subforums_category ON subforums(category_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_threads_subforum ON threads(subforum_id, is_sticky DESC, last_post_at DESC);
CREATE INDEX IF NOT EXISTS idx_threads_user ON threads(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_thread ON posts(thread_id, created_at);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reactions_post ON reactions(post_id);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_post ON reports(post_id);
CREATE INDEX IF NOT EXISTS idx_modlog_time ON moderation_log(created_at DESC);
`
