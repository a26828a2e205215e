package lifecycle

import "github.com/akyairhashvil/marathon/internal/models"

// Guard checks one precondition on the acting user.
type Guard func(op string, u models.User) error

func RequireApproved(op string, u models.User) error {
	if !u.Approved {
		return newError(op, ErrPreconditionFailed, "user %d is not approved", u.ID)
	}
	return nil
}

func RequireActiveTask(op string, u models.User) error {
	if u.CurrentTask <= 0 {
		return newError(op, ErrPreconditionFailed, "user %d has no active task", u.ID)
	}
	return nil
}

func RequirePendingApproval(op string, u models.User) error {
	if u.Approved {
		return newError(op, ErrInvalidState, "user %d is already approved", u.ID)
	}
	return nil
}

// check runs guards in order and stops at the first failure.
func check(op string, u models.User, guards ...Guard) error {
	for _, g := range guards {
		if err := g(op, u); err != nil {
			return err
		}
	}
	return nil
}
