package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/service"
)

type Resolver struct {
	auth  service.AuthService
	users service.UserService
	files service.FileService
	log   *slog.Logger
}

func NewResolver(auth service.AuthService, users service.UserService, files service.FileService, log *slog.Logger) *Resolver {
	return &Resolver{auth: auth, users: users, files: files, log: log}
}

// field wraps a root resolver with timing and error mapping.
func (r *Resolver) field(parent, name string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		start := time.Now()
		res, err := fn(p)
		r.log.InfoContext(p.Context, fmt.Sprintf("%s » %s [%dms]", parent, name, time.Since(start).Milliseconds()))
		if err != nil {
			return nil, toGraphQLError(p.Context, r.log, err)
		}
		return res, nil
	}
}

func (r *Resolver) currentUser(ctx context.Context) (*model.User, error) {
	return r.auth.Authenticate(ctx, TokenFromContext(ctx))
}

// Mutation

func (r *Resolver) signup(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["signupInput"].(map[string]interface{})
	email, _ := in["email"].(string)
	password, _ := in["password"].(string)
	return r.auth.Signup(p.Context, service.SignupInput{Email: email, Password: password})
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["loginInput"].(map[string]interface{})
	email, _ := in["email"].(string)
	password, _ := in["password"].(string)
	return r.auth.Login(p.Context, service.LoginInput{Email: email, Password: password})
}

func (r *Resolver) uploadFile(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	upload, ok := p.Args["file"].(*Upload)
	if !ok || upload == nil || upload.File == nil {
		return nil, NewError(CodeBadUserInput, "file is required")
	}

	return r.files.Upload(p.Context, user, service.UploadInput{
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Body:        upload.File,
	})
}

func (r *Resolver) deleteFile(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.currentUser(p.Context)
	if err != nil {
		return nil, err
	}
	id, _ := p.Args["id"].(string)
	if err := r.files.Delete(p.Context, user.ID, id); err != nil {
		return nil, err
	}
	return true, nil
}

// Query

func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	return r.currentUser(p.Context)
}

func (r *Resolver) myFiles(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.currentUser(p.Context)
	if err != nil {
		return nil, err
	}
	return r.files.ListByUser(p.Context, user.ID)
}

func (r *Resolver) myUploadMetrics(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.currentUser(p.Context)
	if err != nil {
		return nil, err
	}
	return r.files.Metrics(p.Context, user.ID)
}

// Subscription. The executor passes each event in as the root value.

func (r *Resolver) fileUploaded(p graphql.ResolveParams) (interface{}, error) {
	root, _ := p.Info.RootValue.(map[string]interface{})
	file, ok := root["fileUploaded"].(*model.File)
	if !ok {
		return nil, NewError(CodeBadUserInput, "Subscriptions are only available over WebSocket")
	}
	return file, nil
}

// Field resolvers

func (r *Resolver) userFiles(p graphql.ResolveParams) (interface{}, error) {
	user, ok := p.Source.(*model.User)
	if !ok {
		return nil, nil
	}
	files, err := r.files.ListByUser(p.Context, user.ID)
	if err != nil {
		return nil, toGraphQLError(p.Context, r.log, err)
	}
	return files, nil
}

func (r *Resolver) fileOwner(p graphql.ResolveParams) (interface{}, error) {
	file, ok := p.Source.(*model.File)
	if !ok {
		return nil, nil
	}
	if file.User != nil {
		return file.User, nil
	}
	user, err := r.users.GetByID(p.Context, file.UserID)
	if err != nil {
		return nil, toGraphQLError(p.Context, r.log, err)
	}
	return user, nil
}

func (r *Resolver) fileURL(p graphql.ResolveParams) (interface{}, error) {
	file, ok := p.Source.(*model.File)
	if !ok || file.Key == "" {
		return nil, nil
	}
	url, err := r.files.URL(p.Context, file)
	if err != nil {
		r.log.WarnContext(p.Context, "presign failed", "file_id", file.ID, "err", err)
		return nil, nil
	}
	return url, nil
}
