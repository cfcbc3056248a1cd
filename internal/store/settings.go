package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/erazemk/zimmet/internal/model"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	secret, _, err := GetSetting(ctx, q, "jwt_secret")
	if err != nil {
		return "", err
	}
	return secret, nil
}

// GetSetting returns a setting's value and whether it exists.
func GetSetting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a setting, replacing any previous value.
func SetSetting(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// Preference layer keys.
const GlobalPreferencesKey = "preferences:global"

// UserPreferencesKey returns the settings key of a user's preferences.
func UserPreferencesKey(userID int64) string {
	return fmt.Sprintf("preferences:user:%d", userID)
}

// GetPreferences returns the preference layer stored under key. A missing
// layer is empty.
func GetPreferences(ctx context.Context, q Querier, key string) (model.Preferences, error) {
	var prefs model.Preferences
	value, ok, err := GetSetting(ctx, q, key)
	if err != nil || !ok {
		return prefs, err
	}
	if err := json.Unmarshal([]byte(value), &prefs); err != nil {
		return prefs, fmt.Errorf("decoding preferences %s: %w", key, err)
	}
	return prefs, nil
}

// SetPreferences stores a preference layer under key.
func SetPreferences(ctx context.Context, q Querier, key string, prefs model.Preferences) error {
	value, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	return SetSetting(ctx, q, key, string(value))
}
