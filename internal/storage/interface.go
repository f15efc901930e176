package storage

import (
	"context"

	"github.com/inkpress/inkpress-go/internal/model"
)

// Storage defines the interface for data persistence.
//
// Only the auth and pipeline services write through this interface; UI-facing
// layers never touch storage directly.
type Storage interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// Active user operations (the persisted "currently signed in" snapshot,
	// always the public projection, never the full account record)
	SaveActiveUser(ctx context.Context, user *model.User) error
	GetActiveUser(ctx context.Context) (*model.User, error)
	ClearActiveUser(ctx context.Context) error

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// Demo job operations
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id model.JobID) (*model.Job, error)
	DeleteJob(ctx context.Context, id model.JobID) error
}
