package service

import (
	"context"
	"strings"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
)

type UserService interface {
	Create(ctx context.Context, nickname string, profileImageURL *string) (*model.User, error)
	Get(ctx context.Context, id uint64) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Create(ctx context.Context, nickname string, profileImageURL *string) (*model.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len([]rune(nickname)) > 60 {
		return nil, apperr.Validation("invalid nickname")
	}
	u := &model.User{Nickname: nickname, ProfileImageURL: profileImageURL}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}
