package repository

import (
	"context"
	"time"

	"propshop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	Upsert(ctx context.Context, a *model.Admin) error
	// EnsureExists inserts an allowlist record if the email is not present;
	// existing records are left untouched. Safe to call repeatedly.
	EnsureExists(ctx context.Context, email string) error
	TouchLogin(ctx context.Context, email string, at time.Time) error
}

type adminRepo struct{ db *gorm.DB }

func NewAdminRepository(db *gorm.DB) AdminRepository { return &adminRepo{db: db} }

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error
	return &a, err
}

func (r *adminRepo) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := r.db.WithContext(ctx).Order("email ASC").Find(&admins).Error
	return admins, err
}

func (r *adminRepo) Upsert(ctx context.Context, a *model.Admin) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		UpdateAll: true,
	}).Create(a).Error
}

func (r *adminRepo) EnsureExists(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&model.Admin{Email: email}).Error
}

func (r *adminRepo) TouchLogin(ctx context.Context, email string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Admin{}).
		Where("email = ?", email).
		Update("last_login_at", at).Error
}
