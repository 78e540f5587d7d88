package profile

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormStore persists profiles in postgres so display names and images
// survive restarts. Lobby state stays in memory regardless.
type GormStore struct {
	db *gorm.DB
}

func OpenGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(id string) Profile {
	var p Profile
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return Bare(id)
	}
	return p
}

func (s *GormStore) Put(p Profile) error {
	return s.db.Save(&p).Error
}
