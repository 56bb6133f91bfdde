package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/resinriver/storefront/internal/users"
	"github.com/resinriver/storefront/pkg/db"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/security"
)

const emailTakenMessage = "A user with that email already exists."

// Register creates a customer account, then signs it in exactly like Login,
// merging the guest cart when one is presented.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.Field("email", "This field is required.")
	}
	if req.Password != req.PasswordConfirm {
		return nil, pkgerrors.Field("password_confirm", "The two password fields didn't match.")
	}
	if problems := security.CheckPasswordPolicy(req.Password, email); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, problems[0]).
			WithDetails(map[string]string{"password": strings.Join(problems, " ")})
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage).
			WithDetails(map[string]string{"email": emailTakenMessage})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage).
				WithDetails(map[string]string{"email": emailTakenMessage})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.user_registered")

	return s.signIn(ctx, user, req.CartToken)
}
