package repositories

import (
	"github.com/yigit/mclass/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository  *UserRepository
	ClassRepository *ClassRepository
	ApplyRepository *ApplyRepository
	Settings        *SettingsRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database db.Database) *Repositories {
	return &Repositories{
		UserRepository:  NewUserRepository(database),
		ClassRepository: NewClassRepository(database),
		ApplyRepository: NewApplyRepository(database),
		Settings:        NewSettingsRepository(database),
	}
}
