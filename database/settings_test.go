// solforum/database/settings_test.go
package database

import (
	"context"
	"strings"
	"testing"
)

// TestGetSettingsDefaults verifies a fresh database serves every default.
func TestGetSettingsDefaults(t *testing.T) {
	ds := setupTestDB(t)

	settings, err := ds.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings["forum_name"] != "Solidarity Forum" {
		t.Errorf("Expected default forum_name, got %q", settings["forum_name"])
	}
	for key := range DefaultSettings {
		if _, ok := settings[key]; !ok {
			t.Errorf("Missing settings key %q", key)
		}
	}
}

// TestUpdateSettings verifies the key whitelist and CSS sanitization.
func TestUpdateSettings(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	err := ds.UpdateSettings(ctx, map[string]string{
		"forum_name":  "Union Hall",
		"custom_css":  "body { color: red; } @import url('evil.css'); a { x: expression(alert(1)); }",
		"not_a_key":   "should be ignored",
		"primary_col": "also ignored",
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	settings, err := ds.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings["forum_name"] != "Union Hall" {
		t.Errorf("Expected updated forum_name, got %q", settings["forum_name"])
	}
	if strings.Contains(settings["custom_css"], "@import url") || strings.Contains(settings["custom_css"], "expression(") {
		t.Errorf("custom_css was not sanitized: %q", settings["custom_css"])
	}
	if !strings.Contains(settings["custom_css"], "/* @import blocked */") {
		t.Errorf("Expected the @import replacement comment, got %q", settings["custom_css"])
	}
	if _, ok := settings["not_a_key"]; ok {
		t.Error("Unknown key was stored despite the whitelist")
	}
}

// TestGetThemeSettingsWhitelist verifies rows outside the known theme keys
// never reach the public theme map.
func TestGetThemeSettingsWhitelist(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	if _, err := ds.DB.Exec(
		"INSERT INTO forum_settings (key, value) VALUES ('smtp_password', 'hunter2')"); err != nil {
		t.Fatalf("Failed to insert rogue setting: %v", err)
	}

	theme, err := ds.GetThemeSettings(ctx)
	if err != nil {
		t.Fatalf("GetThemeSettings failed: %v", err)
	}
	if _, ok := theme["smtp_password"]; ok {
		t.Error("Theme settings exposed a key outside the whitelist")
	}
	if theme["forum_name"] != DefaultSettings["forum_name"] {
		t.Errorf("Expected default forum_name, got %q", theme["forum_name"])
	}
}

// TestResetSettings verifies a full reset restores the defaults.
func TestResetSettings(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	if err := ds.UpdateSettings(ctx, map[string]string{"forum_name": "Changed"}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if err := ds.ResetSettings(ctx); err != nil {
		t.Fatalf("ResetSettings failed: %v", err)
	}

	settings, err := ds.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings["forum_name"] != DefaultSettings["forum_name"] {
		t.Errorf("Expected default forum_name after reset, got %q", settings["forum_name"])
	}
}
