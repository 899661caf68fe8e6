/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yomguy/servestream-sub001/pkg/logger"
	"gorm.io/gorm"
)

var ErrMigration = errors.New("schema migration failed")

type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order, each in its own transaction. Never edit a
// released step, append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "create streams",
		statements: []string{
			`CREATE TABLE streams (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				nickname TEXT,
				protocol TEXT NOT NULL,
				username TEXT,
				password TEXT,
				hostname TEXT,
				port INTEGER,
				path TEXT,
				query TEXT,
				lastconnect INTEGER DEFAULT -1
			)`,
		},
	},
	{
		version:    2,
		name:       "add reference",
		statements: []string{`ALTER TABLE streams ADD COLUMN reference TEXT`},
	},
	{
		version: 3,
		name:    "add listposition",
		statements: []string{
			`ALTER TABLE streams ADD COLUMN listposition INTEGER DEFAULT 0`,
			`UPDATE streams SET listposition = id`,
		},
	},
	{
		version:    4,
		name:       "add content_type",
		statements: []string{`ALTER TABLE streams ADD COLUMN content_type TEXT`},
	},
	{
		version: 5,
		name:    "create media",
		statements: []string{
			`CREATE TABLE media (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uri TEXT NOT NULL,
				title TEXT,
				artist TEXT,
				album TEXT,
				duration INTEGER DEFAULT -1,
				track INTEGER DEFAULT 0,
				stream_id INTEGER REFERENCES streams(id) ON DELETE SET NULL,
				updated_at INTEGER
			)`,
			`CREATE UNIQUE INDEX idx_media_uri ON media(uri)`,
		},
	},
	{
		version: 6,
		name:    "index stream lookup",
		statements: []string{
			`CREATE INDEX idx_streams_lookup ON streams(protocol, hostname, port, path)`,
		},
	},
}

// LatestVersion is the schema version a fully migrated database reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

type schemaVersion struct {
	Version int `gorm:"column:version"`
}

func (schemaVersion) TableName() string {
	return "schema_version"
}

func currentVersion(db *gorm.DB) (int, error) {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`).Error; err != nil {
		return 0, err
	}
	var rows []schemaVersion
	if err := db.Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		if err := db.Create(&schemaVersion{Version: 0}).Error; err != nil {
			return 0, err
		}
		return 0, nil
	}
	return rows[0].Version, nil
}

// migrate brings db to LatestVersion. A failing step is rolled back and the
// error is returned; the store is never opened on a partially known schema.
func migrate(db *gorm.DB) error {
	version, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("%w: reading schema version: %w", ErrMigration, err)
	}

	if version > LatestVersion() {
		return fmt.Errorf("%w: database version %d is newer than supported version %d", ErrMigration, version, LatestVersion())
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		logger.Infof("Applying schema migration %d (%s)", m.version, m.name)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return tx.Model(&schemaVersion{}).Where("1 = 1").Update("version", m.version).Error
		})
		if err != nil {
			logger.Errorf("Schema migration %d (%s) failed: %v", m.version, m.name, err)
			return fmt.Errorf("%w: step %d (%s): %w", ErrMigration, m.version, m.name, err)
		}
	}
	return nil
}

var streamColumns = []string{
	"id", "nickname", "protocol", "username", "password", "hostname", "port",
	"path", "query", "reference", "lastconnect", "listposition", "content_type",
}

// rebuild recreates the streams table at the latest layout, copying every
// column the old table still has, then marks the schema as current. It is
// the operator-invoked recovery path for a database that fails to migrate.
func rebuild(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := currentVersion(tx); err != nil {
			return err
		}

		hasStreams := tx.Migrator().HasTable("streams")
		if err := tx.Exec(`DROP TABLE IF EXISTS streams_rebuild`).Error; err != nil {
			return err
		}
		if err := tx.Exec(strings.Replace(migrations[0].statements[0], "CREATE TABLE streams", "CREATE TABLE streams_rebuild", 1)).Error; err != nil {
			return err
		}
		for _, stmt := range []string{
			`ALTER TABLE streams_rebuild ADD COLUMN reference TEXT`,
			`ALTER TABLE streams_rebuild ADD COLUMN listposition INTEGER DEFAULT 0`,
			`ALTER TABLE streams_rebuild ADD COLUMN content_type TEXT`,
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}

		if hasStreams {
			kept := make([]string, 0, len(streamColumns))
			for _, col := range streamColumns {
				if tx.Migrator().HasColumn("streams", col) {
					kept = append(kept, col)
				}
			}
			cols := strings.Join(kept, ", ")
			if err := tx.Exec(fmt.Sprintf(`INSERT INTO streams_rebuild (%s) SELECT %s FROM streams`, cols, cols)).Error; err != nil {
				return err
			}
			if !tx.Migrator().HasColumn("streams", "listposition") {
				if err := tx.Exec(`UPDATE streams_rebuild SET listposition = id`).Error; err != nil {
					return err
				}
			}
			if err := tx.Exec(`DROP TABLE streams`).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`ALTER TABLE streams_rebuild RENAME TO streams`).Error; err != nil {
			return err
		}

		for _, stmt := range migrations[4].statements {
			stmt = strings.Replace(stmt, "CREATE TABLE media", "CREATE TABLE IF NOT EXISTS media", 1)
			stmt = strings.Replace(stmt, "CREATE UNIQUE INDEX idx_media_uri", "CREATE UNIQUE INDEX IF NOT EXISTS idx_media_uri", 1)
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_streams_lookup ON streams(protocol, hostname, port, path)`).Error; err != nil {
			return err
		}
		return tx.Model(&schemaVersion{}).Where("1 = 1").Update("version", LatestVersion()).Error
	})
}
