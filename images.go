package main

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Direction int

const (
	Prev Direction = iota
	Next
)

// Image is one file eligible for tagging. Path is the file name relative to
// the configured image folder; Id is the MD5 digest of that path, used as
// the URL token and as the database key.
type Image struct {
	Id   string
	Path string
}

// ImageStore holds the session state for one tagging run: the fixed,
// ordered image list enumerated at startup, the current position, and a
// cache of the persisted tag records.
type ImageStore struct {
	db        *TagDatabase
	root      string
	separator string
	tagNames  map[string]bool
	images    []Image
	byId      map[string]int
	byPath    map[string]int
	records   map[string]TagRecordModel
	index     int
}

func newImageStore(configuration *ConfigFile, db *TagDatabase) (*ImageStore, error) {
	store := &ImageStore{
		db:        db,
		root:      configuration.Images.Path,
		separator: configuration.Tagging.Separator,
		tagNames:  map[string]bool{},
		byId:      map[string]int{},
		byPath:    map[string]int{},
		records:   map[string]TagRecordModel{},
	}
	for _, tag := range configuration.TagSet {
		store.tagNames[tag.Name] = true
	}

	seen := map[string]bool{}
	for _, fileType := range configuration.Images.Types {
		pattern := filepath.Join(configuration.Images.Path, "*."+fileType)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", pattern, err)
		}
		for _, match := range matches {
			name := filepath.Base(match)
			if !seen[name] {
				seen[name] = true
				store.images = append(store.images, Image{Id: pathId(name), Path: name})
			}
		}
	}
	if len(store.images) == 0 {
		return nil, fmt.Errorf("did not find any images in path '%s' of types: '%s'",
			configuration.Images.Path, strings.Join(configuration.Images.Types, "', '"))
	}
	sort.Slice(store.images, func(i, j int) bool {
		return store.images[i].Path < store.images[j].Path
	})
	for i, image := range store.images {
		store.byId[image.Id] = i
		store.byPath[image.Path] = i
	}

	records, dbErr := db.loadRecords()
	if dbErr != nil {
		return nil, fmt.Errorf("%s: %w", dbErr.message, dbErr.err)
	}
	for _, record := range records {
		// Records for files renamed or removed since they were tagged no
		// longer correspond to anything on disk and are ignored.
		if _, known := store.byPath[record.path]; known {
			store.records[record.id] = record
		}
	}
	return store, nil
}

func pathId(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Images returns the session's image list in its stable enumeration order.
func (s *ImageStore) Images() []Image {
	images := make([]Image, len(s.images))
	copy(images, s.images)
	return images
}

func (s *ImageStore) Current() (Image, bool) {
	if len(s.images) == 0 {
		return Image{}, false
	}
	return s.images[s.index], true
}

func (s *ImageStore) Lookup(id string) (Image, bool) {
	idx, ok := s.byId[id]
	if !ok {
		return Image{}, false
	}
	return s.images[idx], true
}

// Seek moves the current position to the image with the given id.
func (s *ImageStore) Seek(id string) *DbResultError {
	idx, ok := s.byId[id]
	if !ok {
		return &DbResultError{status: 404, message: fmt.Sprintf("Cannot find image with ID '%s'", id)}
	}
	s.index = idx
	return nil
}

// Advance moves the current position one step. The position clamps at both
// ends of the list; there is no wraparound. The second return value is false
// only when the list is empty.
func (s *ImageStore) Advance(direction Direction) (Image, bool) {
	if len(s.images) == 0 {
		return Image{}, false
	}
	switch direction {
	case Prev:
		if s.index > 0 {
			s.index--
		}
	case Next:
		if s.index < len(s.images)-1 {
			s.index++
		}
	}
	return s.images[s.index], true
}

// Neighbors returns the ids of the images before and after the given one.
// At a boundary the corresponding id is empty.
func (s *ImageStore) Neighbors(id string) (string, string) {
	idx, ok := s.byId[id]
	if !ok {
		return "", ""
	}
	prev, next := "", ""
	if idx > 0 {
		prev = s.images[idx-1].Id
	}
	if idx < len(s.images)-1 {
		next = s.images[idx+1].Id
	}
	return prev, next
}

// TagsFor returns the stored tag set for the image, empty if the image is
// untagged or was tagged with no selections.
func (s *ImageStore) TagsFor(path string) []string {
	idx, ok := s.byPath[path]
	if !ok {
		return nil
	}
	record, ok := s.records[s.images[idx].Id]
	if !ok || !record.tags.Valid || record.tags.String == "" {
		return nil
	}
	return strings.Split(record.tags.String, s.separator)
}

func (s *ImageStore) RemarkFor(path string) string {
	idx, ok := s.byPath[path]
	if !ok {
		return ""
	}
	record, ok := s.records[s.images[idx].Id]
	if !ok {
		return ""
	}
	return record.remark.String
}

func (s *ImageStore) Tagged(path string) bool {
	idx, ok := s.byPath[path]
	if !ok {
		return false
	}
	_, tagged := s.records[s.images[idx].Id]
	return tagged
}

// SubmitTags persists the tag selection for the image. Paths outside the
// enumerated set and tag names outside the configured set are rejected.
// A submission identical to the stored record is a no-op. The in-memory
// cache is updated only after the database write succeeds.
func (s *ImageStore) SubmitTags(path string, tags []string, remark string) *DbResultError {
	idx, ok := s.byPath[path]
	if !ok {
		return &DbResultError{status: 404, message: fmt.Sprintf("Cannot find image with path '%s'", path)}
	}
	for _, name := range tags {
		if !s.tagNames[name] {
			return &DbResultError{status: 400, message: fmt.Sprintf("Unknown tag '%s'", name)}
		}
	}
	image := s.images[idx]
	joined := strings.Join(tags, s.separator)
	remark = strings.TrimSpace(remark)
	if old, tagged := s.records[image.Id]; tagged {
		if old.tags.String == joined && old.remark.String == remark {
			return nil
		}
	}
	record := TagRecordModel{
		id:      image.Id,
		path:    image.Path,
		tags:    sql.NullString{String: joined, Valid: true},
		remark:  sql.NullString{String: remark, Valid: true},
		updated: sql.NullString{String: time.Now().Format("2006-01-02T15:04:05"), Valid: true},
	}
	if dbErr := s.db.upsertRecord(record); dbErr != nil {
		return dbErr
	}
	s.records[image.Id] = record
	return nil
}

// FirstUntagged returns the first image without a stored record, or the
// last image when everything has been tagged.
func (s *ImageStore) FirstUntagged() Image {
	for _, image := range s.images {
		if _, tagged := s.records[image.Id]; !tagged {
			return image
		}
	}
	return s.images[len(s.images)-1]
}

// Dump returns all tagged records ordered by update time, then path.
func (s *ImageStore) Dump() []TagRecordModel {
	var records []TagRecordModel
	for _, image := range s.images {
		if record, tagged := s.records[image.Id]; tagged {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].updated.String != records[j].updated.String {
			return records[i].updated.String < records[j].updated.String
		}
		return records[i].path < records[j].path
	})
	return records
}

func (s *ImageStore) AbsPath(image Image) string {
	return filepath.Join(s.root, image.Path)
}
