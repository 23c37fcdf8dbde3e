package repository

import (
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
)

type UserEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	Username string `db:"username"  gorm:"column:username;not null;unique"`
	Password string `db:"password"  gorm:"column:password;not null"`
	Name     string `db:"name"      gorm:"column:name;not null"`
	Role     string `db:"role"      gorm:"column:role;not null"`
	Phone    string `db:"phone"     gorm:"column:phone"`
	IsActive bool   `db:"is_active" gorm:"column:is_active;not null;default:true"`
	pg.Timestamps
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:       m.ID,
		Username: m.Username,
		Password: m.Password,
		Name:     m.Name,
		Role:     string(m.Role),
		Phone:    m.Phone,
		IsActive: m.IsActive,
		Timestamps: pg.Timestamps{
			CreatedAt: m.CreatedAt,
		},
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:        e.ID,
		Username:  e.Username,
		Password:  e.Password,
		Name:      e.Name,
		Role:      model.Role(e.Role),
		Phone:     e.Phone,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
}

func toUserModels(entities []*UserEntity) []*model.User {
	if entities == nil {
		return nil
	}
	models := make([]*model.User, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}
