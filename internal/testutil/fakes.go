// Package testutil holds in-memory stand-ins for repositories and storage.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/storage"
	"tush00nka/filehub/internal/repository"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type UserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]*model.User{}}
}

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type FileRepo struct {
	mu        sync.Mutex
	Files     []*model.File
	CreateErr error
	FindErr   error
}

func (r *FileRepo) Create(_ context.Context, file *model.File) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	r.Files = append(r.Files, file)
	return nil
}

func (r *FileRepo) FindByID(_ context.Context, id string) (*model.File, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.Files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *FileRepo) FindByUser(_ context.Context, userID string) ([]*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.File
	for i := len(r.Files) - 1; i >= 0; i-- {
		if r.Files[i].UserID == userID {
			out = append(out, r.Files[i])
		}
	}
	return out, nil
}

func (r *FileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.Files {
		if f.ID == id {
			r.Files = append(r.Files[:i], r.Files[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Storage reports a fixed backend size when ReportSize is set so tests can
// tell it apart from the streamed length.
type Storage struct {
	mu         sync.Mutex
	Objects    map[string]int64
	ReportSize int64
	UploadErr  error
	HealthErr  error
	Deleted    []string
}

func NewStorage() *Storage {
	return &Storage{Objects: map[string]int64{}}
}

func (s *Storage) Upload(_ context.Context, r io.Reader, key, _ string) (*storage.Object, error) {
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	if s.ReportSize > 0 {
		n = s.ReportSize
	}
	s.mu.Lock()
	s.Objects[key] = n
	s.mu.Unlock()
	return &storage.Object{Key: key, Size: n}, nil
}

func (s *Storage) Stat(_ context.Context, key string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Key: key, Size: n}, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	if _, ok := s.Objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.Objects, key)
	return nil
}

func (s *Storage) PresignGet(_ context.Context, key string) (string, error) {
	return "http://storage.test/uploads/" + key, nil
}

func (s *Storage) EnsureBucket(context.Context) error { return nil }

func (s *Storage) HealthCheck(context.Context) error { return s.HealthErr }

var ErrBoom = errors.New("boom")
