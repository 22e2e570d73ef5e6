package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyCounter backs the day-scoped order number. One row per calendar day,
// bumped atomically so concurrent placements never share a number.
type DailyCounter struct {
	Day string `gorm:"primaryKey;type:varchar(10)"`
	Seq uint   `gorm:"not null"`
}

// DayKey formats a timestamp to the counter's day bucket (server local time,
// boundary at 00:00).
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NextOrderNo increments and returns the sequence for the given day inside
// tx. The upsert keeps the increment on a single row, so the database's
// per-row atomicity makes the sequence gap-free under concurrency.
func NextOrderNo(tx *gorm.DB, day string) (uint, error) {
	counter := DailyCounter{Day: day, Seq: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("seq + 1")}),
	}).Create(&counter).Error
	if err != nil {
		return 0, err
	}

	if err := tx.First(&counter, "day = ?", day).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
