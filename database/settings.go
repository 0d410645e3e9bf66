// solforum/database/settings.go
package database

import (
	"context"
	"database/sql"
	"time"

	"solforum/cache"
	"solforum/utils"
)

const settingsCacheKey = "solforum:settings"
const settingsCacheTTL = 5 * time.Minute

// DefaultSettings holds every recognized theme key with its default value.
// Unknown keys are rejected on update so admins cannot store arbitrary data.
var DefaultSettings = map[string]string{
	"forum_name":            "Solidarity Forum",
	"forum_description":     "A community forum",
	"primary_color":         "#2B4A4D",
	"secondary_color":       "#4A9B9B",
	"accent_color":          "#D4A843",
	"background_color":      "#E8ECEF",
	"content_bg_color":      "#FFFFFF",
	"text_color":            "#333333",
	"link_color":            "#1A6B8A",
	"header_bg_color":       "#2B4A4D",
	"header_text_color":     "#FFFFFF",
	"category_header_color": "#3A6367",
	"font_family":           "system-ui, -apple-system, sans-serif",
	"font_size_base":        "14px",
	"border_radius":         "4px",
	"content_width":         "1200px",
	"logo_text":             "SOLIDARITY FORUM",
	"custom_css":            "",
	"dark_mode_enabled":     "false",
	"dark_bg_color":         "#1a1a2e",
	"dark_content_bg":       "#16213e",
	"dark_text_color":       "#e0e0e0",
	"dark_header_bg":        "#0f3460",
}

// seedSettings inserts any missing setting keys with their defaults.
func seedSettings(db *sql.DB) error {
	for key, value := range DefaultSettings {
		if _, err := db.Exec(
			"INSERT INTO forum_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING",
			key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetCache attaches an optional Redis client used for the settings cache.
func (ds *DatabaseService) SetCache(c *cache.Client) {
	ds.cache = c
}

// GetSettings returns all theme settings, filling missing keys with
// defaults. Served from Redis when available.
func (ds *DatabaseService) GetSettings(ctx context.Context) (map[string]string, error) {
	settings := make(map[string]string)
	if found, err := ds.cache.GetJSON(ctx, settingsCacheKey, &settings); err == nil && found {
		return settings, nil
	} else if err != nil {
		ds.logger.Warn("Settings cache read failed", "error", err)
	}

	rows, err := ds.DB.Query("SELECT key, value FROM forum_settings")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetSettings", "error", err)
		}
	}()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			ds.logger.Error("Failed to scan setting row", "error", err)
			continue
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for key, value := range DefaultSettings {
		if _, ok := settings[key]; !ok {
			settings[key] = value
		}
	}

	if err := ds.cache.SetJSON(ctx, settingsCacheKey, settings, settingsCacheTTL); err != nil {
		ds.logger.Warn("Settings cache write failed", "error", err)
	}
	return settings, nil
}

// GetThemeSettings returns the settings filtered to recognized theme keys.
// Rows that reach forum_settings through any other path never leave the
// public endpoint.
func (ds *DatabaseService) GetThemeSettings(ctx context.Context) (map[string]string, error) {
	settings, err := ds.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	theme := make(map[string]string, len(DefaultSettings))
	for key := range DefaultSettings {
		if value, ok := settings[key]; ok {
			theme[key] = value
		}
	}
	return theme, nil
}

// UpdateSettings upserts the given settings. Keys outside DefaultSettings
// are ignored, and custom_css is sanitized before storage.
func (ds *DatabaseService) UpdateSettings(ctx context.Context, settings map[string]string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "UpdateSettings")

	for key, value := range settings {
		if _, ok := DefaultSettings[key]; !ok {
			continue
		}
		if key == "custom_css" {
			value = utils.SanitizeCustomCSS(value)
		}
		if _, err := tx.Exec(
			"INSERT INTO forum_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ds.cache.Delete(ctx, settingsCacheKey)
	return nil
}

// ResetSettings restores every setting to its default value.
func (ds *DatabaseService) ResetSettings(ctx context.Context) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "ResetSettings")

	for key, value := range DefaultSettings {
		if _, err := tx.Exec(
			"INSERT INTO forum_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ds.cache.Delete(ctx, settingsCacheKey)
	return nil
}
