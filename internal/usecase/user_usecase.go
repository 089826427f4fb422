package usecase

import (
	"context"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

type UserProfileOutput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Gender   string `json:"gender"`
	Birthday string `json:"birthday"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zipcode  string `json:"zipcode"`
	Phone    string `json:"phone"`
}

type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Gender   *string `json:"gender"`
	Birthday *string `json:"birthday"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Zipcode  *string `json:"zipcode"`
	Phone    *string `json:"phone"`
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID int64) (UserProfileOutput, error) {
	if userID <= 0 {
		return UserProfileOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return UserProfileOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserProfileOutput(user), nil
}

// UpdateProfile は渡されたフィールドだけ上書きする。メールとパスワードはここでは触らない。
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (UserProfileOutput, error) {
	if userID <= 0 {
		return UserProfileOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return UserProfileOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&user.Name, in.Name)
	apply(&user.Gender, in.Gender)
	apply(&user.Birthday, in.Birthday)
	apply(&user.Address, in.Address)
	apply(&user.City, in.City)
	apply(&user.State, in.State)
	apply(&user.Zipcode, in.Zipcode)
	apply(&user.Phone, in.Phone)

	if err := u.users.Update(ctx, user); err != nil {
		return UserProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserProfileOutput(user), nil
}

type AdminUserListOutput struct {
	Users []UserProfileOutput `json:"users"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

func (u *UserUsecase) AdminListUsers(ctx context.Context, page int, limit int) (AdminUserListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	users, total, err := u.users.List(ctx, page, limit)
	if err != nil {
		return AdminUserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]UserProfileOutput, 0, len(users))
	for _, user := range users {
		outs = append(outs, toUserProfileOutput(user))
	}
	return AdminUserListOutput{Users: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *UserUsecase) AdminDeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.users.FindByID(ctx, userID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.users.SoftDelete(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toUserProfileOutput(u model.User) UserProfileOutput {
	return UserProfileOutput{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		Gender:   u.Gender,
		Birthday: u.Birthday,
		Address:  u.Address,
		City:     u.City,
		State:    u.State,
		Zipcode:  u.Zipcode,
		Phone:    u.Phone,
	}
}
