package graph

import (
	"github.com/graphql-go/graphql"
)

func nonNull(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(t)
}

// NewSchema builds the executable schema around r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNull(graphql.ID)},
			"email":     &graphql.Field{Type: nonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: nonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: nonNull(graphql.DateTime)},
		},
	})

	fileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "File",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNull(graphql.ID)},
			"filename":  &graphql.Field{Type: nonNull(graphql.String)},
			"mimetype":  &graphql.Field{Type: nonNull(graphql.String)},
			"size":      &graphql.Field{Type: nonNull(graphql.Int), Description: "Size in bytes as reported by storage."},
			"createdAt": &graphql.Field{Type: nonNull(graphql.DateTime)},
			"user":      &graphql.Field{Type: nonNull(userType), Resolve: r.fileOwner},
			"url":       &graphql.Field{Type: graphql.String, Description: "Presigned download link.", Resolve: r.fileURL},
		},
	})

	userType.AddFieldConfig("files", &graphql.Field{
		Type:    nonNull(graphql.NewList(nonNull(fileType))),
		Resolve: r.userFiles,
	})

	authResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthResponse",
		Fields: graphql.Fields{
			"accessToken": &graphql.Field{Type: nonNull(graphql.String)},
			"user":        &graphql.Field{Type: nonNull(userType)},
		},
	})

	dailyUploadCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyUploadCount",
		Fields: graphql.Fields{
			"date":  &graphql.Field{Type: nonNull(graphql.String)},
			"count": &graphql.Field{Type: nonNull(graphql.Int)},
		},
	})

	uploadMetricsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UploadMetrics",
		Fields: graphql.Fields{
			"totalFiles": &graphql.Field{Type: nonNull(graphql.Int)},
			// Float: Int is 32-bit in GraphQL
			"totalStorage":  &graphql.Field{Type: nonNull(graphql.Float)},
			"uploadsPerDay": &graphql.Field{Type: nonNull(graphql.NewList(nonNull(dailyUploadCountType)))},
		},
	})

	signupInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SignupInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	loginInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LoginInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    nonNull(userType),
				Resolve: r.field("Query", "me", r.me),
			},
			"myFiles": &graphql.Field{
				Type:    nonNull(graphql.NewList(nonNull(fileType))),
				Resolve: r.field("Query", "myFiles", r.myFiles),
			},
			"myUploadMetrics": &graphql.Field{
				Type:    nonNull(uploadMetricsType),
				Resolve: r.field("Query", "myUploadMetrics", r.myUploadMetrics),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type: nonNull(authResponseType),
				Args: graphql.FieldConfigArgument{
					"signupInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(signupInput)},
				},
				Resolve: r.field("Mutation", "signup", r.signup),
			},
			"login": &graphql.Field{
				Type: nonNull(authResponseType),
				Args: graphql.FieldConfigArgument{
					"loginInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInput)},
				},
				Resolve: r.field("Mutation", "login", r.login),
			},
			"uploadFile": &graphql.Field{
				Type: nonNull(fileType),
				Args: graphql.FieldConfigArgument{
					"file": &graphql.ArgumentConfig{Type: graphql.NewNonNull(UploadScalar)},
				},
				Resolve: r.field("Mutation", "uploadFile", r.uploadFile),
			},
			"deleteFile": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.field("Mutation", "deleteFile", r.deleteFile),
			},
		},
	})

	subscription := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"fileUploaded": &graphql.Field{
				Type:    fileType,
				Resolve: r.field("Subscription", "fileUploaded", r.fileUploaded),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        query,
		Mutation:     mutation,
		Subscription: subscription,
		Types:        []graphql.Type{UploadScalar},
	})
}
