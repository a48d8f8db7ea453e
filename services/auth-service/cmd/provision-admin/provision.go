package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
)

var (
	errNoTarget       = errors.New("exactly one of -email or -id is required")
	errUserNotFound   = errors.New("user not found")
	errBlankNameGiven = errors.New("-name must not be blank")
)

type provisionRequest struct {
	Email string
	ID    string
	Admin bool
	Name  string
}

func (r provisionRequest) validate() error {
	if (r.Email == "") == (r.ID == "") {
		return errNoTarget
	}
	if r.Name != "" && strings.TrimSpace(r.Name) == "" {
		return errBlankNameGiven
	}
	return nil
}

// provision applies req to the target user. It reports whether anything was written.
func provision(ctx context.Context, repo repository.UserRepository, req provisionRequest) (*model.User, bool, error) {
	if err := req.validate(); err != nil {
		return nil, false, err
	}

	user, err := findTarget(ctx, repo, req)
	if err != nil {
		return nil, false, err
	}

	var params repository.UpdateUserParams
	if user.IsAdmin != req.Admin {
		params.IsAdmin = &req.Admin
	}
	if name := strings.TrimSpace(req.Name); name != "" && name != user.Name {
		params.Name = &name
	}
	if params.IsAdmin == nil && params.Name == nil {
		return user, false, nil
	}

	updated, err := repo.UpdateUser(ctx, user.ID.Hex(), params)
	if err != nil {
		return nil, false, fmt.Errorf("update user: %w", err)
	}

	return updated, true, nil
}

func findTarget(ctx context.Context, repo repository.UserRepository, req provisionRequest) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if req.ID != "" {
		user, err = repo.GetUser(ctx, req.ID)
	} else {
		user, err = repo.GetUserByEmail(ctx, req.Email)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}
