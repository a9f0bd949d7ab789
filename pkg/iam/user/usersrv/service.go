// Package usersrv orchestrates user administration over the IdP directory:
// create with password and roles, reads with role resolution, partial
// updates, role replacement, and deletion.
package usersrv

import (
	"context"
	"time"

	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/asyncx"
	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/iam/user"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/notifx"
	"github.com/libromesh/identity/pkg/ptrx"
	"github.com/libromesh/identity/pkg/tracex"
)

// listAll asks the admin API for an unbounded window.
const listAll = -1

type UserService struct {
	dir      user.Directory
	workers  int
	auditor  audit.Recorder
	notifier *notifx.Client
}

// NewUserService builds the service. workers bounds the concurrent
// role-resolution calls fanned out by list operations.
func NewUserService(dir user.Directory, workers int, auditor audit.Recorder, notifier *notifx.Client) *UserService {
	if workers < 1 {
		workers = 1
	}
	return &UserService{
		dir:      dir,
		workers:  workers,
		auditor:  auditor,
		notifier: notifier,
	}
}

// Create registers the account, sets its permanent password and assigns the
// requested roles. A role failure after creation leaves the account in place
// with no roles; the error reports the role step.
func (s *UserService) Create(ctx context.Context, req user.CreateRequest) (*user.User, kernel.CorrelationID, *errx.Error) {
	created, cid, xerr := tracex.Execute(ctx, "user.create", req.Username, func(ctx context.Context) (*user.User, error) {
		if xerr := req.Validate(); xerr != nil {
			return nil, xerr
		}

		profile := user.User{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Enabled:   ptrx.BoolValueOr(req.Enabled, true),
		}

		id, err := s.dir.Create(ctx, profile, req.Password)
		if err != nil {
			return nil, err
		}

		if len(req.Roles) > 0 {
			if err := s.dir.AssignRoles(ctx, id, req.Roles); err != nil {
				return nil, err
			}
		}

		return s.fetch(ctx, id)
	})

	if xerr != nil {
		s.auditor.Record(ctx, audit.Failed("user.create", req.Username, cid, xerr.Code))
		return nil, cid, xerr
	}

	s.auditor.Record(ctx, audit.Succeeded("user.create", req.Username, created.ID, cid))
	s.notifyCreated(created.Email, created.Username)
	return created, cid, nil
}

// Get returns one account with its realm roles.
func (s *UserService) Get(ctx context.Context, id kernel.UserID) (*user.User, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "user.get", id.String(), func(ctx context.Context) (*user.User, error) {
		return s.fetch(ctx, id)
	})
}

// List returns the full directory, roles resolved per account.
func (s *UserService) List(ctx context.Context) ([]user.User, kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "user.list_all", "", func(ctx context.Context) ([]user.User, error) {
		users, err := s.dir.List(ctx, 0, listAll)
		if err != nil {
			return nil, err
		}
		return s.withRoles(ctx, users)
	})
}

// ListPaged returns one page window plus totals. The window is validated
// before any IdP call; list and count run concurrently.
func (s *UserService) ListPaged(ctx context.Context, p apix.PageRequest) (apix.Page[user.User], kernel.CorrelationID, *errx.Error) {
	return tracex.Execute(ctx, "user.list", "", func(ctx context.Context) (apix.Page[user.User], error) {
		var zero apix.Page[user.User]

		if xerr := p.Validate(); xerr != nil {
			return zero, xerr
		}

		usersF := asyncx.Run(func() ([]user.User, error) {
			return s.dir.List(ctx, p.Offset(), p.Size)
		})
		countF := asyncx.Run(func() (int64, error) {
			return s.dir.Count(ctx)
		})

		users, err := usersF.Await()
		if err != nil {
			return zero, err
		}
		total, err := countF.Await()
		if err != nil {
			return zero, err
		}

		users, err = s.withRoles(ctx, users)
		if err != nil {
			return zero, err
		}
		return apix.NewPage(users, total, p.Page, p.Size), nil
	})
}

// Update merges the partial request onto the current account. A non-nil role
// slice replaces the whole role set (clear, then assign).
func (s *UserService) Update(ctx context.Context, id kernel.UserID, req user.UpdateRequest) (*user.User, kernel.CorrelationID, *errx.Error) {
	updated, cid, xerr := tracex.Execute(ctx, "user.update", id.String(), func(ctx context.Context) (*user.User, error) {
		current, err := s.dir.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		merged := req.Apply(*current)
		if err := s.dir.Update(ctx, id, merged); err != nil {
			return nil, err
		}

		if req.Roles != nil {
			if err := s.dir.ClearRoles(ctx, id); err != nil {
				return nil, err
			}
			if err := s.dir.AssignRoles(ctx, id, req.Roles); err != nil {
				return nil, err
			}
		}

		return s.fetch(ctx, id)
	})

	if xerr != nil {
		s.auditor.Record(ctx, audit.Failed("user.update", id.String(), cid, xerr.Code))
		return nil, cid, xerr
	}

	s.auditor.Record(ctx, audit.Succeeded("user.update", updated.Username, id, cid))
	return updated, cid, nil
}

// Delete removes the account. Deleting an absent ID is NOT_FOUND.
func (s *UserService) Delete(ctx context.Context, id kernel.UserID) (kernel.CorrelationID, *errx.Error) {
	_, cid, xerr := tracex.Execute(ctx, "user.delete", id.String(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.dir.Delete(ctx, id)
	})

	if xerr != nil {
		s.auditor.Record(ctx, audit.Failed("user.delete", id.String(), cid, xerr.Code))
		return cid, xerr
	}

	s.auditor.Record(ctx, audit.Succeeded("user.delete", id.String(), id, cid))
	return cid, nil
}

// fetch loads the account and its roles concurrently.
func (s *UserService) fetch(ctx context.Context, id kernel.UserID) (*user.User, error) {
	accountF := asyncx.Run(func() (*user.User, error) {
		return s.dir.Get(ctx, id)
	})
	rolesF := asyncx.Run(func() ([]string, error) {
		return s.dir.RolesOf(ctx, id)
	})

	account, err := accountF.Await()
	if err != nil {
		return nil, err
	}
	roles, err := rolesF.Await()
	if err != nil {
		return nil, err
	}

	account.Roles = roles
	return account, nil
}

// withRoles resolves roles for every account through the bounded worker pool.
func (s *UserService) withRoles(ctx context.Context, users []user.User) ([]user.User, error) {
	return asyncx.Pool(ctx, s.workers, users, func(ctx context.Context, u user.User) (user.User, error) {
		roles, err := s.dir.RolesOf(ctx, u.ID)
		if err != nil {
			return user.User{}, err
		}
		u.Roles = roles
		return u, nil
	})
}

func (s *UserService) notifyCreated(email, username string) {
	if s.notifier == nil {
		return
	}
	asyncx.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.SendAccountCreated(ctx, email, username); err != nil {
			logx.WithField("username", username).
				Warnf("Account-created notification failed: %v", err)
		}
	})
}
