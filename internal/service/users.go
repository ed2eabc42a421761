package service

import (
	"context"
	"fmt"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserInput struct {
	Username   *string          `json:"username"`
	Email      *string          `json:"email"`
	FirstName  *string          `json:"first_name"`
	LastName   *string          `json:"last_name"`
	Password   *string          `json:"password"`
	Role       *models.UserRole `json:"role"`
	IsActive   *bool            `json:"is_active"`
	CompanyIDs *[]uuid.UUID     `json:"company_ids"`
}

func (in UserInput) apply(u *models.User) error {
	setString(&u.Username, in.Username)
	setString(&u.Email, in.Email)
	setString(&u.FirstName, in.FirstName)
	setString(&u.LastName, in.LastName)
	if in.Role != nil {
		if !in.Role.Valid() {
			return invalid("unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return invalid("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	return required("username", u.Username)
}

func loadCompanies(tx *gorm.DB, ids []uuid.UUID) ([]models.Company, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var companies []models.Company
	if err := tx.Where("id IN ?", ids).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	if len(companies) != len(dedupe(ids)) {
		return nil, fmt.Errorf("%w: one or more companies", ErrNotFound)
	}
	return companies, nil
}

func dedupe(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CreateUser stores the user and its company memberships. Activity is
// recorded once per company.
func (s *Service) CreateUser(ctx context.Context, actor *signals.Actor, in UserInput) (*models.User, error) {
	u := &models.User{Role: models.RoleClient, IsActive: true}
	if err := in.apply(u); err != nil {
		return nil, err
	}
	if u.PasswordHash == "" {
		// без пароля вход невозможен, пока администратор его не задаст
		u.PasswordHash = "!"
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if in.CompanyIDs != nil {
			companies, err := loadCompanies(tx, *in.CompanyIDs)
			if err != nil {
				return err
			}
			u.Companies = companies
		}
		if err := tx.Omit("Companies.*").Create(u).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: u, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, actor *signals.Actor, id uuid.UUID, in UserInput) (*models.User, error) {
	var u *models.User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if u, err = find[models.User](tx, id, "Companies"); err != nil {
			return err
		}
		before := *u
		if err := in.apply(u); err != nil {
			return err
		}
		if err := tx.Omit("Companies").Save(u).Error; err != nil {
			return err
		}
		if in.CompanyIDs != nil {
			companies, err := loadCompanies(tx, *in.CompanyIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(u).Association("Companies").Replace(companies); err != nil {
				return err
			}
			u.Companies = companies
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpUpdate, Entity: u, Before: &before, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		u, err := find[models.User](tx, id, "Companies")
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: u, Actor: actor}); err != nil {
			return err
		}
		if err := tx.Model(u).Association("Companies").Clear(); err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}
