package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	repo "github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

// UserService manages library members and staff. Uniqueness pre-checks give
// precise errors up front; uq_users_username / uq_users_email remain the
// backstop for writers that race past them.
type UserService struct {
	Users      repo.UserRepository
	Borrowings repo.BorrowingRepository
	UoW        repo.UnitOfWork
	Logger     *logrus.Logger
}

func NewUserService(users repo.UserRepository, borrowings repo.BorrowingRepository,
	uow repo.UnitOfWork, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Borrowings: borrowings, UoW: uow, Logger: logger}
}

type RegisterUserInput struct {
	Username string
	Email    string
	FullName string
	Phone    string
	Role     entity.Role
}

// Register creates a new active user.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*entity.User, error) {
	if in.Username == "" {
		return nil, apperr.New(apperr.KindValidation, "username is required")
	}
	if in.Email == "" {
		return nil, apperr.New(apperr.KindValidation, "email is required")
	}
	if in.Role == "" {
		in.Role = entity.RoleMember
	}
	if !in.Role.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown role %q", in.Role)
	}

	user := &entity.User{
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     in.Role,
		Status:   entity.UserActive,
	}

	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		if _, err := s.Users.FindByUsername(ctx, in.Username); err == nil {
			return apperr.New(apperr.KindConflict, "username already taken")
		} else if !apperr.IsNotFound(err) {
			return err
		}
		if _, err := s.Users.FindByEmail(ctx, in.Email); err == nil {
			return apperr.New(apperr.KindConflict, "email already registered")
		} else if !apperr.IsNotFound(err) {
			return err
		}
		return s.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id is required")
	}
	return s.Users.FindByID(ctx, id)
}

type UpdateUserInput struct {
	FullName string
	Phone    string
	Role     entity.Role
	Status   entity.UserStatus
}

// Update patches profile fields and standing. Empty fields keep their value.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id is required")
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown role %q", in.Role)
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", in.Status)
	}

	var user *entity.User
	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		u, err := s.Users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.FullName != "" {
			u.FullName = in.FullName
		}
		if in.Phone != "" {
			u.Phone = in.Phone
		}
		if in.Role != "" {
			u.Role = in.Role
		}
		if in.Status != "" {
			u.Status = in.Status
		}
		if err := s.Users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user together with their borrowings. Postgres cascades
// natively; stores without cascade support do the cleanup inside the same
// unit of work, so a half-deleted user is never observable.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.New(apperr.KindValidation, "user id is required")
	}
	return s.UoW.Do(ctx, func(ctx context.Context) error {
		deleted, err := s.Users.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		if s.Logger != nil {
			s.Logger.WithField("user_id", id).Info("user deleted with borrowings")
		}
		return nil
	})
}

// PurgeBorrowings is the administrative cleanup path: it deletes the user's
// loan records one by one, logging and continuing on individual failures but
// reporting how many were skipped rather than hiding them.
func (s *UserService) PurgeBorrowings(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, apperr.New(apperr.KindValidation, "user id is required")
	}
	borrowings, err := s.Borrowings.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	removed, failed := 0, 0
	for _, b := range borrowings {
		if _, err := s.Borrowings.Delete(ctx, b.ID); err != nil {
			failed++
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("borrowing_id", b.ID).Warn("purge: delete failed")
			}
			continue
		}
		removed++
	}
	if failed > 0 {
		return removed, apperr.Newf(apperr.KindInternal, "purge incomplete: %d of %d deletes failed", failed, len(borrowings))
	}
	return removed, nil
}
