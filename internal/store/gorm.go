package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pavelkurin/portfolio_backend/internal/models"
)

// GormStore implements CredentialStore over any gorm dialect.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	err := s.DB.WithContext(ctx).
		Preload("RefreshToken").
		Preload("ForgotPasswordToken").
		First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var a models.Account
	err := s.DB.WithContext(ctx).
		Preload("RefreshToken").
		Preload("ForgotPasswordToken").
		Where(query, arg).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *GormStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *GormStore) FindByIdentifier(ctx context.Context, identifier string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.DB.WithContext(ctx).
		Preload("RefreshToken").
		Preload("ForgotPasswordToken").
		Where("email = ? OR username = ?", identifier, identifier).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *GormStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.DB.WithContext(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *GormStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateAccount(ctx context.Context, a *models.Account) error {
	return s.DB.WithContext(ctx).Create(a).Error
}

func (s *GormStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	return s.DB.WithContext(ctx).Save(a).Error
}

func (s *GormStore) DeleteAccount(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.ForgotPasswordToken{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Account{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) SaveSession(ctx context.Context, accountID uint, accessToken string, rt *models.RefreshToken) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ?", accountID).
			Update("access_token", accessToken)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(rt).Error
	})
}

func (s *GormStore) ClearSession(ctx context.Context, accountID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ?", accountID).
			Update("access_token", "")
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("account_id = ?", accountID).Delete(&models.RefreshToken{}).Error
	})
}

func (s *GormStore) SaveResetToken(ctx context.Context, accountID uint, t *models.ForgotPasswordToken) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.ForgotPasswordToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

func (s *GormStore) MarkResetValidated(ctx context.Context, accountID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.ForgotPasswordToken{}).
		Where("account_id = ?", accountID).
		Update("is_validated", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SetAccessToken(ctx context.Context, accountID uint, token string) error {
	res := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("access_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword swaps the digest and tears down the whole session: the
// access token is emptied and any refresh row removed, so the account lands
// in the logged-out state.
func (s *GormStore) UpdatePassword(ctx context.Context, accountID uint, digest string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ?", accountID).
			Updates(map[string]any{"password_hash": digest, "access_token": ""})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("account_id = ?", accountID).Delete(&models.RefreshToken{}).Error
	})
}
