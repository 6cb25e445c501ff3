package api

import (
	"context"
	"fmt"
	"net/url"
)

// ListParams are the recognized list-query options. Zero values are
// dropped from the outgoing query string.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	// Filters is flattened into individual query parameters; nil and
	// empty-string values are dropped.
	Filters map[string]any
	Sort    string
	// Direction is "asc" or "desc"; anything else is dropped.
	Direction string
}

// Values flattens the params into query parameters.
func (p ListParams) Values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", itoa(p.Page))
	}
	if p.PerPage > 0 {
		values.Set("per_page", itoa(p.PerPage))
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	for key, val := range p.Filters {
		if key == "" || val == nil {
			continue
		}
		s := fmt.Sprintf("%v", val)
		if s == "" {
			continue
		}
		values.Set(key, s)
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	if p.Direction == "asc" || p.Direction == "desc" {
		values.Set("direction", p.Direction)
	}
	return values
}

// Resource is a client for one console collection. Resources are built
// by explicit factory functions and threaded from the composition root;
// there are no package-level singletons.
type Resource struct {
	exec *Executor
	path string
}

// NewResource returns a client for the collection at path.
func NewResource(exec *Executor, path string) *Resource {
	return &Resource{exec: exec, path: path}
}

// Path returns the collection path this resource targets.
func (r *Resource) Path() string { return r.path }

// List fetches one page of records.
func (r *Resource) List(ctx context.Context, params ListParams) (*Page, error) {
	return r.exec.List(ctx, r.path, params.Values())
}

// Get fetches a single record; nil (with nil error) means not found.
func (r *Resource) Get(ctx context.Context, id string) (Record, error) {
	return r.exec.GetByID(ctx, r.path, id)
}

// Create posts a new record.
func (r *Resource) Create(ctx context.Context, payload Record) (Record, error) {
	return r.exec.Create(ctx, r.path, payload)
}

// Update puts an updated record.
func (r *Resource) Update(ctx context.Context, id string, payload Record) (Record, error) {
	return r.exec.UpdateByID(ctx, r.path, id, payload)
}

// Delete removes a record.
func (r *Resource) Delete(ctx context.Context, id string) error {
	return r.exec.DeleteByID(ctx, r.path, id)
}

// =============================================================================
// Console Collections
// =============================================================================

// NewCompanies returns the companies resource client.
func NewCompanies(exec *Executor) *Resource { return NewResource(exec, "/companies") }

// NewSites returns the sites resource client.
func NewSites(exec *Executor) *Resource { return NewResource(exec, "/sites") }

// NewBusinessUnits returns the business-units resource client.
func NewBusinessUnits(exec *Executor) *Resource { return NewResource(exec, "/business_units") }

// NewServiceOrders returns the service-orders resource client.
func NewServiceOrders(exec *Executor) *Resource { return NewResource(exec, "/service_orders") }

// NewClients returns the clients resource client.
func NewClients(exec *Executor) *Resource { return NewResource(exec, "/clients") }

// NewCurrencies returns the currencies resource client.
func NewCurrencies(exec *Executor) *Resource { return NewResource(exec, "/currencies") }

// NewUsers returns the users resource client.
func NewUsers(exec *Executor) *Resource { return NewResource(exec, "/users") }
