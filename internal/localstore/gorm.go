package localstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one device-scoped key/value row.
type Entry struct {
	DeviceID  string `gorm:"primaryKey;size:64"`
	KeyName   string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "device_kv" }

// DB wraps the shared gorm handle; ForDevice binds it to one device.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (d *DB) AutoMigrate() error {
	return d.db.AutoMigrate(&Entry{})
}

func (d *DB) ForDevice(deviceID string) Store {
	return &gormStore{db: d.db, deviceID: deviceID}
}

type gormStore struct {
	db       *gorm.DB
	deviceID string
}

func (s *gormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND key_name = ?", s.deviceID, key).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *gormStore) Set(ctx context.Context, key, value string) error {
	e := Entry{DeviceID: s.deviceID, KeyName: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "key_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}

func (s *gormStore) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("device_id = ? AND key_name = ?", s.deviceID, key).
		Delete(&Entry{}).Error
}

func (s *gormStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("device_id = ? AND key_name IN ?", s.deviceID, sessionKeys).
		Delete(&Entry{}).Error
}
