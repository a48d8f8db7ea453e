package repofake

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/storefront-api/services/auth-service/internal/repository"
)

var _ repository.UserRepository = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepository with a unique email constraint.
type FakeUserRepo struct {
	users    map[bson.ObjectID]model.User
	emailIDs map[string]bson.ObjectID
	lock     sync.RWMutex

	// Err, when set, is returned by every operation.
	Err error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[bson.ObjectID]model.User),
		emailIDs: make(map[string]bson.ObjectID),
	}
}

func (r *FakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	if _, ok := r.emailIDs[user.Email]; ok {
		return nil, repository.ErrDuplicateKey
	}

	now := time.Now()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Provider == "" {
		user.Provider = model.ProviderCredentials
	}

	r.users[user.ID] = *user
	r.emailIDs[user.Email] = user.ID

	created := *user
	return &created, nil
}

func (r *FakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, ok := r.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *FakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	id, ok := r.emailIDs[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := r.users[id]
	return &user, nil
}

func (r *FakeUserRepo) GetUserProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (r *FakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, ok := r.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.IsAdmin != nil {
		user.IsAdmin = *params.IsAdmin
	}
	user.UpdatedAt = time.Now()
	r.users[objectID] = user

	return &user, nil
}

// Count returns the number of stored users.
func (r *FakeUserRepo) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.users)
}
