// Package identity resolves free-text names from heterogeneous CSV exports to
// canonical employee identities.
package identity

import (
	"context"
	"fmt"

	"github.com/garnizeh/worklog/internal/textutil"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Cache is the run-scoped snapshot of canonical employees, aliases, vehicles
// and clients. It is loaded once per pipeline run and mutated in place when
// the resolver creates identities, so later rows of the same run see them
// without reloading. Not safe for concurrent runs; each run owns its own Cache.
type Cache struct {
	employees map[string]*models.Employee // normalized full name and "first last" -> employee
	byID      map[int64]*models.Employee
	aliases   map[string]int64 // normalized alias forms -> employee id
	vehicles  map[string]*models.Vehicle
	clients   map[string]*models.Client
}

// LoadCache builds a Cache from the store.
func LoadCache(ctx context.Context, store repository.Store) (*Cache, error) {
	c := &Cache{
		employees: make(map[string]*models.Employee),
		byID:      make(map[int64]*models.Employee),
		aliases:   make(map[string]int64),
		vehicles:  make(map[string]*models.Vehicle),
		clients:   make(map[string]*models.Client),
	}

	employees, err := store.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	for i := range employees {
		c.AddEmployee(&employees[i])
	}

	aliases, err := store.ListAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	for i := range aliases {
		c.AddAlias(&aliases[i])
	}

	vehicles, err := store.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	for i := range vehicles {
		c.AddVehicle(&vehicles[i])
	}

	clients, err := store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	for i := range clients {
		c.AddClient(&clients[i])
	}

	return c, nil
}

func (c *Cache) AddEmployee(e *models.Employee) {
	c.byID[e.ID] = e
	c.employees[textutil.Normalize(e.FullName)] = e
	joined := textutil.Normalize(e.FirstName + " " + e.LastName)
	if joined != "" {
		c.employees[joined] = e
	}
}

func (c *Cache) AddAlias(a *models.EmployeeAlias) {
	c.aliases[textutil.Normalize(a.AliasFull)] = a.EmployeeID
	joined := textutil.Normalize(a.AliasFirst + " " + a.AliasLast)
	if joined != "" {
		c.aliases[joined] = a.EmployeeID
	}
}

func (c *Cache) AddVehicle(v *models.Vehicle) {
	c.vehicles[textutil.Normalize(v.Name)] = v
}

func (c *Cache) AddClient(cl *models.Client) {
	c.clients[textutil.Normalize(cl.Name)] = cl
}

// LookupEmployee matches a normalized name against full names and
// "first last" concatenations.
func (c *Cache) LookupEmployee(normalized string) (*models.Employee, bool) {
	e, ok := c.employees[normalized]
	return e, ok
}

func (c *Cache) EmployeeByID(id int64) (*models.Employee, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Cache) LookupAlias(normalized string) (int64, bool) {
	id, ok := c.aliases[normalized]
	return id, ok
}

func (c *Cache) HasVehicle(normalized string) bool {
	_, ok := c.vehicles[normalized]
	return ok
}

func (c *Cache) LookupClient(normalized string) (*models.Client, bool) {
	cl, ok := c.clients[normalized]
	return cl, ok
}

// Employees iterates distinct canonical employees for fuzzy scoring.
func (c *Cache) Employees() []*models.Employee {
	out := make([]*models.Employee, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e)
	}
	return out
}

// ClientNames returns normalized client names for association suggestions.
func (c *Cache) ClientNames() []string {
	out := make([]string, 0, len(c.clients))
	for name := range c.clients {
		out = append(out, name)
	}
	return out
}

func (c *Cache) String() string {
	return fmt.Sprintf("cache{employees=%d aliases=%d vehicles=%d clients=%d}",
		len(c.byID), len(c.aliases), len(c.vehicles), len(c.clients))
}
