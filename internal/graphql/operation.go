// Package graphql holds the operation catalogue the storefront issues against
// the travel backend. An operation's kind, which decides the transport it
// travels on, is read from its document once at definition time.
package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Kind int

const (
	KindQuery Kind = iota
	KindMutation
	KindSubscription
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	case KindSubscription:
		return "subscription"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AuthRequirement says which credentials an operation expects the caller to
// hold. The gateway attaches them but does not refuse to send without them.
type AuthRequirement int

const (
	AuthNone AuthRequirement = iota
	AuthUser
	AuthAdmin
)

type Operation struct {
	Name     string
	Kind     Kind
	Auth     AuthRequirement
	Document string
	// Root is the top-level response field, e.g. "getBookings".
	Root string
}

// Define builds an Operation, deriving its kind from the leading keyword of
// the document. It panics on documents without one; the catalogue is static.
func Define(name, root string, auth AuthRequirement, document string) Operation {
	doc := strings.TrimSpace(document)
	var kind Kind
	switch {
	case strings.HasPrefix(doc, "query"), strings.HasPrefix(doc, "{"):
		kind = KindQuery
	case strings.HasPrefix(doc, "mutation"):
		kind = KindMutation
	case strings.HasPrefix(doc, "subscription"):
		kind = KindSubscription
	default:
		panic(fmt.Sprintf("graphql: operation %s has no operation keyword", name))
	}
	return Operation{Name: name, Kind: kind, Auth: auth, Document: doc, Root: root}
}

type Variables map[string]any

// Key renders the variables in a canonical form. encoding/json sorts map keys,
// so two maps with the same content always produce the same key.
func (v Variables) Key() string {
	if len(v) == 0 {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(v))
	}
	return string(data)
}

// Request is the body of a GraphQL-over-HTTP POST and of a graphql-ws
// subscribe payload.
type Request struct {
	Query         string    `json:"query"`
	OperationName string    `json:"operationName,omitempty"`
	Variables     Variables `json:"variables,omitempty"`
}

func (o Operation) Request(vars Variables) Request {
	return Request{Query: o.Document, OperationName: o.Name, Variables: vars}
}

// Response is the standard GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []ErrorMessage  `json:"errors,omitempty"`
}

type ErrorMessage struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}
