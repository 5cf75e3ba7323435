package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SQLStore persists through GORM (PostgreSQL in production, SQLite for
// local runs and tests). The *gorm.DB must be opened with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.
type SQLStore struct {
	db   *gorm.DB
	mode string
}

func NewSQLStore(db *gorm.DB, mode string) *SQLStore {
	return &SQLStore{db: db, mode: mode}
}

func (s *SQLStore) Mode() string { return s.mode }

// DB exposes the handle for the log sink and migrations.
func (s *SQLStore) DB() *gorm.DB { return s.db }

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&c.Users).Error; err != nil {
		return c, translate(err)
	}
	if err := db.Model(&models.Application{}).Count(&c.Applications).Error; err != nil {
		return c, translate(err)
	}
	if err := db.Model(&models.Session{}).Count(&c.Sessions).Error; err != nil {
		return c, translate(err)
	}
	return c, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, u *models.User) error {
	return s.updateAll(ctx, u)
}

func (s *SQLStore) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *SQLStore) FindApplicationByID(ctx context.Context, id string) (*models.Application, error) {
	var a models.Application
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *SQLStore) FindApplicationByUserAndProgram(ctx context.Context, userID, program string) (*models.Application, error) {
	var a models.Application
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND program = ?", userID, program).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *SQLStore) ListApplications(ctx context.Context, userID string) ([]models.Application, error) {
	apps := make([]models.Application, 0)
	q := s.db.WithContext(ctx).Order("submission_date DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&apps).Error; err != nil {
		return nil, translate(err)
	}
	return apps, nil
}

func (s *SQLStore) UpdateApplication(ctx context.Context, a *models.Application) error {
	return s.updateAll(ctx, a)
}

func (s *SQLStore) DeleteApplication(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &models.Application{}, id)
}

func (s *SQLStore) CreateSession(ctx context.Context, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(sess).Error)
}

func (s *SQLStore) FindSessionByRefreshHash(ctx context.Context, hash string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Where("refresh_token_hash = ?", hash).First(&sess).Error; err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

func (s *SQLStore) FindSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&sess).Error; err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

func (s *SQLStore) UpdateSession(ctx context.Context, sess *models.Session) error {
	return s.updateAll(ctx, sess)
}

func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &models.Session{}, id)
}

// updateAll writes every column of an existing row, zero values included.
// Unlike Save it never falls back to an insert.
func (s *SQLStore) updateAll(ctx context.Context, value interface{}) error {
	result := s.db.WithContext(ctx).Model(value).Select("*").Omit("created_at").Updates(value)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) deleteByID(ctx context.Context, model interface{}, id string) error {
	result := s.db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("sql store: %w", err)
	}
}
