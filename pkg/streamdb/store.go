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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yomguy/servestream-sub001/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("stream record not found")

type Store struct {
	db *gorm.DB
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(
		logger.WithFields(logger.Fields{"component": "streamdb"}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func openDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection keeps every transaction
	// short-lived and ordered without an application lock.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open opens or creates the database at path and migrates it to the
// latest schema. A migration failure leaves the database untouched at the
// last good version and returns an error wrapping ErrMigration.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return &Store{db: db}, nil
}

// Rebuild recreates the streams table of the database at path in the
// latest layout, keeping every row and column it can still read.
func Rebuild(path string) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer closeDB(db)
	if err := rebuild(db); err != nil {
		return fmt.Errorf("rebuilding %s: %w", path, err)
	}
	logger.Infof("Rebuilt stream database %s at schema version %d", path, LatestVersion())
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var row schemaVersion
	if err := s.db.WithContext(ctx).First(&row).Error; err != nil {
		return 0, err
	}
	return row.Version, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func nextListPosition(tx *gorm.DB) (int64, error) {
	var max int64
	err := tx.Model(&StreamRecord{}).Select("COALESCE(MAX(listposition), 0)").Scan(&max).Error
	return max + 1, err
}

func (s *Store) FindBySelection(ctx context.Context, sel Selection) (*StreamRecord, error) {
	return findBySelection(s.db.WithContext(ctx), sel)
}

func findBySelection(db *gorm.DB, sel Selection) (*StreamRecord, error) {
	var rec StreamRecord
	if err := sel.apply(db.Model(&StreamRecord{})).Order("id").First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// FindOrCreate returns the record matching sel, inserting the one built by
// create when none exists. The boolean reports whether a row was inserted.
func (s *Store) FindOrCreate(ctx context.Context, sel Selection, create func() *StreamRecord) (*StreamRecord, bool, error) {
	var (
		rec     *StreamRecord
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findBySelection(tx, sel)
		if err == nil {
			rec = found
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		rec = create()
		if err := insert(tx, rec); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return rec, created, nil
}

func insert(tx *gorm.DB, rec *StreamRecord) error {
	pos, err := nextListPosition(tx)
	if err != nil {
		return err
	}
	rec.ID = 0
	rec.ListPosition = pos
	return tx.Create(rec).Error
}

// Create inserts rec at the end of the list.
func (s *Store) Create(ctx context.Context, rec *StreamRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insert(tx, rec)
	})
}

func (s *Store) Find(ctx context.Context, id int64) (*StreamRecord, error) {
	var rec StreamRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// List returns every record in user-visible order.
func (s *Store) List(ctx context.Context) ([]StreamRecord, error) {
	var recs []StreamRecord
	err := s.db.WithContext(ctx).Order("listposition").Order("id").Find(&recs).Error
	return recs, err
}

func (s *Store) Update(ctx context.Context, rec *StreamRecord) error {
	res := s.db.WithContext(ctx).Model(&StreamRecord{}).Where("id = ?", rec.ID).Select("*").Omit("id").Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch records a connection attempt at t.
func (s *Store) Touch(ctx context.Context, id int64, t time.Time) error {
	return s.updateColumn(ctx, id, "lastconnect", t.Unix())
}

func (s *Store) SetContentType(ctx context.Context, id int64, contentType string) error {
	return s.updateColumn(ctx, id, "content_type", NullString(contentType))
}

func (s *Store) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Model(&StreamRecord{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record and detaches the media rows that came from it.
// The schema declares ON DELETE SET NULL, but SQLite only honours it with
// foreign keys enabled on the connection, so the rows are cleared here.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&MediaFile{}).Where("stream_id = ?", id).Update("stream_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&StreamRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Move places the record at the zero-based position and renumbers the list.
func (s *Store) Move(ctx context.Context, id int64, position int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recs []StreamRecord
		if err := tx.Select("id").Order("listposition").Order("id").Find(&recs).Error; err != nil {
			return err
		}

		ids := make([]int64, 0, len(recs))
		found := false
		for _, r := range recs {
			if r.ID == id {
				found = true
				continue
			}
			ids = append(ids, r.ID)
		}
		if !found {
			return ErrNotFound
		}

		if position < 0 {
			position = 0
		}
		if position > len(ids) {
			position = len(ids)
		}
		ids = append(ids[:position], append([]int64{id}, ids[position:]...)...)

		for i, rid := range ids {
			if err := tx.Model(&StreamRecord{}).Where("id = ?", rid).Update("listposition", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
