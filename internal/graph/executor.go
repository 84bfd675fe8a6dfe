package graph

import (
	"context"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"tush00nka/filehub/internal/service"
)

type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

type Executor struct {
	schema graphql.Schema
	auth   service.AuthService
	files  service.FileService
	log    *slog.Logger
}

func NewExecutor(auth service.AuthService, users service.UserService, files service.FileService, log *slog.Logger) (*Executor, error) {
	schema, err := NewSchema(NewResolver(auth, users, files, log))
	if err != nil {
		return nil, err
	}
	return &Executor{schema: schema, auth: auth, files: files, log: log}, nil
}

type prepared struct {
	doc *ast.Document
	op  *ast.OperationDefinition
}

func (e *Executor) prepare(req Request) (*prepared, []gqlerrors.FormattedError) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: req.Query,
	})
	if err != nil {
		return nil, formatErrors(CodeValidationFailed, gqlerrors.FormatErrors(err))
	}

	vr := graphql.ValidateDocument(&e.schema, doc, nil)
	if !vr.IsValid {
		return nil, formatErrors(CodeValidationFailed, vr.Errors)
	}

	op := findOperation(doc, req.OperationName)
	if op == nil {
		return nil, formatError(NewError(CodeValidationFailed, "Unknown operation"))
	}
	return &prepared{doc: doc, op: op}, nil
}

func findOperation(doc *ast.Document, name string) *ast.OperationDefinition {
	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if name == "" {
			if found != nil {
				return nil // ambiguous
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == name {
			return op
		}
	}
	return found
}

func (e *Executor) run(ctx context.Context, p *prepared, req Request, root map[string]interface{}) *graphql.Result {
	return graphql.Execute(graphql.ExecuteParams{
		Schema:        e.schema,
		Root:          root,
		AST:           p.doc,
		OperationName: req.OperationName,
		Args:          req.Variables,
		Context:       ctx,
	})
}

// Execute runs a query or mutation. Subscriptions are rejected here and must
// go through Subscribe.
func (e *Executor) Execute(ctx context.Context, req Request) *graphql.Result {
	p, errs := e.prepare(req)
	if errs != nil {
		return &graphql.Result{Errors: errs}
	}
	if p.op.Operation == ast.OperationTypeSubscription {
		return &graphql.Result{Errors: formatError(NewError(CodeBadUserInput, "Subscriptions are only available over WebSocket"))}
	}
	return e.run(ctx, p, req, map[string]interface{}{})
}

// Subscribe starts a subscription. Queries and mutations yield a single
// result. The channel is closed when ctx is done or the event source ends.
func (e *Executor) Subscribe(ctx context.Context, req Request) (<-chan *graphql.Result, []gqlerrors.FormattedError) {
	p, errs := e.prepare(req)
	if errs != nil {
		return nil, errs
	}

	if p.op.Operation != ast.OperationTypeSubscription {
		out := make(chan *graphql.Result, 1)
		out <- e.run(ctx, p, req, map[string]interface{}{})
		close(out)
		return out, nil
	}

	user, err := e.auth.Authenticate(ctx, TokenFromContext(ctx))
	if err != nil {
		return nil, formatError(toGraphQLError(ctx, e.log, err))
	}

	events, err := e.files.SubscribeUploads(ctx, user.ID)
	if err != nil {
		return nil, formatError(toGraphQLError(ctx, e.log, err))
	}

	out := make(chan *graphql.Result)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case file, ok := <-events:
				if !ok {
					return
				}
				if file.UserID != user.ID {
					continue
				}
				res := e.run(ctx, p, req, map[string]interface{}{"fileUploaded": file})
				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
