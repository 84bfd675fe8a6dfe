package graph

import (
	"io"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Upload is a file part of a multipart GraphQL request bound to a variable.
type Upload struct {
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

var UploadScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Upload",
	Description: "The `Upload` scalar type represents a file upload.",
	Serialize: func(value interface{}) interface{} {
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		if u, ok := value.(*Upload); ok {
			return u
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return nil
	},
})
