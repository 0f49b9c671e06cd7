package cli

import (
	"fmt"
	"os"

	configfile "github.com/staticfold-labs/notemill-cli/internal/adapters/driven/config/file"
	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// Default values for settings nothing else supplies.
const (
	defaultContentDir = "./content"
	defaultStaticDir  = "./static"
	defaultMaxWidth   = 1920
	defaultPolicy     = "first"
)

// settings holds everything a sync run needs, after resolution.
type settings struct {
	Token            string
	DatabaseID       string
	ContentDir       string
	StaticDir        string
	MaxWidth         int
	DataSourcePolicy string
}

// resolveSettings merges flag values, environment variables, the config
// file and built-in defaults, in that order of precedence. Token and
// database ID are required; everything else has a default.
func resolveSettings(flagToken, flagDatabaseID, flagContentDir, flagStaticDir string) (*settings, error) {
	store := openConfigStore()

	s := &settings{
		Token:            firstOf(flagToken, os.Getenv("NOTION_TOKEN"), configString(store, "notion.token")),
		DatabaseID:       firstOf(flagDatabaseID, os.Getenv("NOTION_DATABASE_ID"), configString(store, "notion.database_id")),
		ContentDir:       firstOf(flagContentDir, configString(store, "site.content_dir"), defaultContentDir),
		StaticDir:        firstOf(flagStaticDir, configString(store, "site.static_dir"), defaultStaticDir),
		MaxWidth:         defaultMaxWidth,
		DataSourcePolicy: firstOf(configString(store, "sync.data_source_policy"), defaultPolicy),
	}

	if w := configInt(store, "media.max_width"); w > 0 {
		s.MaxWidth = w
	}

	if s.Token == "" {
		return nil, fmt.Errorf("%w: notion token (set NOTION_TOKEN or notion.token)", domain.ErrMissingConfig)
	}
	if s.DatabaseID == "" {
		return nil, fmt.Errorf("%w: notion database ID (set NOTION_DATABASE_ID or notion.database_id)", domain.ErrMissingConfig)
	}

	return s, nil
}

// openConfigStore opens the config file layer. An unreadable config
// file downgrades to flags, environment and defaults only.
func openConfigStore() driven.ConfigStore {
	store, err := configfile.NewConfigStore("")
	if err != nil {
		logger.Debug("config file unavailable: %v", err)
		return nil
	}
	return store
}

func configString(store driven.ConfigStore, key string) string {
	if store == nil {
		return ""
	}
	return store.GetString(key)
}

func configInt(store driven.ConfigStore, key string) int {
	if store == nil {
		return 0
	}
	return store.GetInt(key)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
