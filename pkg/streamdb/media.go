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

	"gorm.io/gorm"
)

// UpsertMedia stores entries, reusing the existing row for a URI already
// known, and returns their ids in input order. A duplicate URI in entries
// yields the same id twice.
func (s *Store) UpsertMedia(ctx context.Context, streamID *int64, entries []MediaFile) ([]int64, error) {
	ids := make([]int64, 0, len(entries))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			entry := entries[i]

			var existing MediaFile
			err := tx.Where("uri = ?", entry.URI).First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]interface{}{"track": entry.Track}
				if existing.Title == nil && entry.Title != nil {
					updates["title"] = *entry.Title
				}
				if existing.Duration <= 0 && entry.Duration > 0 {
					updates["duration"] = entry.Duration
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return err
				}
				ids = append(ids, existing.ID)
			case errors.Is(err, gorm.ErrRecordNotFound):
				entry.ID = 0
				entry.StreamID = streamID
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				ids = append(ids, entry.ID)
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) FindMedia(ctx context.Context, id int64) (*MediaFile, error) {
	var m MediaFile
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// MediaByIDs returns the rows for ids in the order given. Unknown ids are
// skipped.
func (s *Store) MediaByIDs(ctx context.Context, ids []int64) ([]MediaFile, error) {
	if len(ids) == 0 {
		return []MediaFile{}, nil
	}
	var rows []MediaFile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]MediaFile, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]MediaFile, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

func (s *Store) ListMedia(ctx context.Context) ([]MediaFile, error) {
	var rows []MediaFile
	err := s.db.WithContext(ctx).Order("id").Find(&rows).Error
	return rows, err
}

// UpdateMediaMetadata writes the non-empty fields of md to the row.
func (s *Store) UpdateMediaMetadata(ctx context.Context, id int64, md Metadata) error {
	updates := map[string]interface{}{}
	if md.Title != "" {
		updates["title"] = md.Title
	}
	if md.Artist != "" {
		updates["artist"] = md.Artist
	}
	if md.Album != "" {
		updates["album"] = md.Album
	}
	if md.Duration > 0 {
		updates["duration"] = md.Duration
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&MediaFile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
