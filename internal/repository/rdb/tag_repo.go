package rdb

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prizetalk/internal/model"
)

// upsertTags creates missing dictionary entries and returns the ids of all
// names in the same order. names must already be normalized and unique.
func upsertTags(tx *gorm.DB, names []string) ([]uint64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([]model.Tag, 0, len(names))
	for _, n := range names {
		rows = append(rows, model.Tag{TagName: n})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tag_name"}},
		DoNothing: true,
	}).Create(&rows).Error; err != nil {
		return nil, err
	}
	var found []model.Tag
	if err := tx.Where("tag_name IN ?", names).Find(&found).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]uint64, len(found))
	for _, t := range found {
		byName[t.TagName] = t.ID
	}
	ids := make([]uint64, 0, len(names))
	for _, n := range names {
		if id, ok := byName[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// linkPostTags is a no-op for pairs that are already linked.
func linkPostTags(tx *gorm.DB, postID uint64, names []string) error {
	ids, err := upsertTags(tx, names)
	if err != nil || len(ids) == 0 {
		return err
	}
	links := make([]model.PostTag, 0, len(ids))
	for i, id := range ids {
		links = append(links, model.PostTag{PostID: postID, TagID: id, Position: i})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func linkGroupPostTags(tx *gorm.DB, groupPostID uint64, names []string) error {
	ids, err := upsertTags(tx, names)
	if err != nil || len(ids) == 0 {
		return err
	}
	links := make([]model.GroupPostTag, 0, len(ids))
	for i, id := range ids {
		links = append(links, model.GroupPostTag{GroupPostID: groupPostID, TagID: id, Position: i})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

type tagLink struct {
	OwnerID uint64
	TagName string
}

// tagsByOwner maps each owner id to its tag names in the order the author
// gave them. linkTable and ownerCol are fixed identifiers supplied by callers
// in this package.
func tagsByOwner(db *gorm.DB, linkTable, ownerCol string, ids []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var links []tagLink
	err := db.Table(linkTable+" AS l").
		Select("l."+ownerCol+" AS owner_id, t.tag_name AS tag_name").
		Joins("JOIN tags t ON t.id = l.tag_id").
		Where("l."+ownerCol+" IN ?", ids).
		Order("l.position ASC").Order("t.tag_name ASC").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.OwnerID] = append(out[l.OwnerID], l.TagName)
	}
	return out, nil
}

// tagContainment restricts q to owners linked to every name in tags.
func tagContainment(q *gorm.DB, db *gorm.DB, linkTable, ownerCol, idExpr string, tags []string) *gorm.DB {
	if len(tags) == 0 {
		return q
	}
	sub := db.Table(linkTable+" AS lt").
		Select("lt."+ownerCol).
		Joins("JOIN tags tg ON tg.id = lt.tag_id").
		Where("tg.tag_name IN ?", tags).
		Group("lt."+ownerCol).
		Having("COUNT(DISTINCT tg.tag_name) = ?", len(tags))
	return q.Where(idExpr+" IN (?)", sub)
}
