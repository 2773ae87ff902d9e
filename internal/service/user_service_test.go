package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"users-be/internal/cache"
	"users-be/internal/entities"
	"users-be/internal/models"
	"users-be/internal/repository"
)

// stubRepo delegates to the in-memory repository unless an error is injected.
type stubRepo struct {
	repository.UserRepository
	findErr   error
	createErr error
	listErr   error
	deleteErr error
	listCalls int
	afterList func() // runs once the store has been read
}

func newStubRepo() *stubRepo {
	return &stubRepo{UserRepository: repository.NewMemoryUserRepository()}
}

func (r *stubRepo) FindOne(ctx context.Context, email, username string) (*entities.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.UserRepository.FindOne(ctx, email, username)
}

func (r *stubRepo) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	return r.UserRepository.Create(ctx, user)
}

func (r *stubRepo) FindAll(ctx context.Context) ([]*entities.User, error) {
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	users, err := r.UserRepository.FindAll(ctx)
	if r.afterList != nil {
		r.afterList()
	}
	return users, err
}

func (r *stubRepo) DeleteByEmail(ctx context.Context, email string) (*entities.User, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	return r.UserRepository.DeleteByEmail(ctx, email)
}

func newTestService(repo repository.UserRepository, c cache.Cache) UserService {
	return NewUserService(repo, c, UserServiceConfig{SaltRounds: bcrypt.MinCost, CacheTTL: time.Minute}, nil)
}

func newMiniredisCache(t *testing.T) (*miniredis.Miniredis, cache.Cache) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return mr, c
}

// currentListKey mirrors the key the service reads the list from.
func currentListKey(mr *miniredis.Miniredis) string {
	gen, err := mr.Get(userListGenKey)
	if err != nil {
		gen = "0"
	}
	return userListCacheKey + ":" + gen
}

func validRequest() *models.RegisterRequest {
	return &models.RegisterRequest{Email: "a@x.com", Username: "a", Fullname: "A", Password: "pw"}
}

func TestRegister_MissingFields_AllSubsets(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)

	// Every non-empty subset of the four required fields is blanked out.
	for mask := 1; mask < 16; mask++ {
		req := validRequest()
		if mask&1 != 0 {
			req.Email = ""
		}
		if mask&2 != 0 {
			req.Username = ""
		}
		if mask&4 != 0 {
			req.Fullname = "  "
		}
		if mask&8 != 0 {
			req.Password = ""
		}

		t.Run(fmt.Sprintf("mask=%04b", mask), func(t *testing.T) {
			_, err := svc.Register(context.Background(), req)
			assert.True(t, IsKind(err, KindMissingArgument), "got %v", err)
		})
	}

	_, err := svc.Register(context.Background(), nil)
	assert.True(t, IsKind(err, KindMissingArgument))
}

func TestRegister_Success_HashesPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil)

	user, err := svc.Register(context.Background(), validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NotEqual(t, "pw", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw")))

	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestRegister_PasswordLengthLimit(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)

	tooLong := validRequest()
	tooLong.Password = strings.Repeat("p", 73)
	_, err := svc.Register(context.Background(), tooLong)
	assert.True(t, IsKind(err, KindInvalidArgument), "got %v", err)

	atLimit := validRequest()
	atLimit.Password = strings.Repeat("p", 72)
	user, err := svc.Register(context.Background(), atLimit)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(atLimit.Password)))
}

func TestRegister_Conflicts(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	sameEmail := validRequest()
	sameEmail.Username = "b"
	_, err = svc.Register(context.Background(), sameEmail)
	assert.True(t, IsKind(err, KindConflict), "same email: %v", err)

	sameUsername := validRequest()
	sameUsername.Email = "b@x.com"
	_, err = svc.Register(context.Background(), sameUsername)
	assert.True(t, IsKind(err, KindConflict), "same username: %v", err)
}

func TestRegister_ConstraintRaceBecomesConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
	svc := newTestService(repo, nil)

	_, err := svc.Register(context.Background(), validRequest())

	assert.True(t, IsKind(err, KindConflict), "got %v", err)
}

func TestRegister_StorageFaultsBecomeAccessErrors(t *testing.T) {
	lookup := newStubRepo()
	lookup.findErr = errors.New("connection refused")
	_, err := newTestService(lookup, nil).Register(context.Background(), validRequest())
	assert.True(t, IsKind(err, KindAccess))

	insert := newStubRepo()
	insert.createErr = fmt.Errorf("%w: timeout", repository.ErrAccess)
	_, err = newTestService(insert, nil).Register(context.Background(), validRequest())
	assert.True(t, IsKind(err, KindAccess))
}

func TestNewUserService_InvalidSaltFallsBackToDefault(t *testing.T) {
	svc := NewUserService(newStubRepo(), nil, UserServiceConfig{SaltRounds: 99}, nil).(*userService)
	assert.Equal(t, bcrypt.DefaultCost, svc.cfg.SaltRounds)
}

func TestFindOne(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.FindOne(ctx, "", "a")
	assert.True(t, IsKind(err, KindMissingArgument))

	user, err := svc.FindOne(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Nil(t, user, "absence is not an error")

	_, err = svc.Register(ctx, validRequest())
	require.NoError(t, err)

	user, err = svc.FindOne(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a", user.Username)

	repo.findErr = errors.New("boom")
	_, err = svc.FindOne(ctx, "a@x.com", "")
	assert.True(t, IsKind(err, KindAccess))
}

func TestDelete(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Delete(ctx, " ")
	assert.True(t, IsKind(err, KindMissingArgument))

	_, err = svc.Delete(ctx, "a@x.com")
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)

	a, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Register(ctx, &models.RegisterRequest{Email: "b@x.com", Username: "b", Fullname: "B", Password: "pw"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	remaining, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b@x.com", remaining[0].Email)
}

func TestFindOneAndDelete_TrimEmail(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, &models.RegisterRequest{Email: " a@x.com ", Username: "a", Fullname: "A", Password: "pw"})
	require.NoError(t, err)

	user, err := svc.FindOne(ctx, "  a@x.com\t", "")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@x.com", user.Email)

	deleted, err := svc.Delete(ctx, " a@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", deleted.Email)
}

func TestDelete_StorageFaultBecomesAccessError(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	repo.deleteErr = fmt.Errorf("%w: deadlock", repository.ErrAccess)
	_, err = svc.Delete(context.Background(), "a@x.com")

	assert.True(t, IsKind(err, KindAccess))
	assert.ErrorIs(t, err, repository.ErrAccess)
}

func TestFindAll_StorageFault(t *testing.T) {
	repo := newStubRepo()
	repo.listErr = errors.New("boom")

	_, err := newTestService(repo, nil).FindAll(context.Background())

	assert.True(t, IsKind(err, KindAccess))
}

func TestFindAll_CachesAndInvalidates(t *testing.T) {
	mr, c := newMiniredisCache(t)

	repo := newStubRepo()
	svc := newTestService(repo, c)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	first, err := svc.FindAll(ctx)
	require.NoError(t, err)
	second, err := svc.FindAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls, "second read served from cache")
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Empty(t, second[0].PasswordHash)
	assert.True(t, mr.Exists(currentListKey(mr)))

	_, err = svc.Delete(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, mr.Exists(currentListKey(mr)), "delete moves readers to a new generation")

	users, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, 2, repo.listCalls)
}

func TestFindAll_CacheFailureFallsBackToStore(t *testing.T) {
	mr, c := newMiniredisCache(t)

	repo := newStubRepo()
	svc := newTestService(repo, c)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, mr.Set(currentListKey(mr), "{corrupt"))

	users, err := svc.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestFindAll_DeleteDuringReadDoesNotCacheStaleList(t *testing.T) {
	_, c := newMiniredisCache(t)

	repo := newStubRepo()
	svc := newTestService(repo, c)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Register(ctx, &models.RegisterRequest{Email: "b@x.com", Username: "b", Fullname: "B", Password: "pw"})
	require.NoError(t, err)

	listed := make(chan struct{})
	release := make(chan struct{})
	repo.afterList = func() {
		close(listed)
		<-release
	}

	done := make(chan []*entities.User)
	go func() {
		users, err := svc.FindAll(ctx)
		assert.NoError(t, err)
		done <- users
	}()

	<-listed
	repo.afterList = nil
	_, err = svc.Delete(ctx, "a@x.com")
	require.NoError(t, err)
	close(release)

	assert.Len(t, <-done, 2, "the in-flight read still returns its own snapshot")

	users, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "b@x.com", users[0].Email)
}

func TestNewUserService_NonPositiveCacheTTLDisablesCache(t *testing.T) {
	mr, c := newMiniredisCache(t)

	repo := newStubRepo()
	svc := NewUserService(repo, c, UserServiceConfig{SaltRounds: bcrypt.MinCost}, nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.FindAll(context.Background())
	require.NoError(t, err)
	_, err = svc.FindAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls)
	assert.Empty(t, mr.Keys())
}
