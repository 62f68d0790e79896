package ingest

import (
	"context"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

// ingestProjectRow loads the project registry export: one project name per
// row, optionally tied to a client.
func ingestProjectRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawProject, err := requireColumn(rec, "project", "progetto", "commessa", "nome progetto", "project")
	if err != nil {
		return resSkipped, err
	}
	name := CleanCell(rawProject)

	p := &models.Project{Name: name}
	if raw, ok := pickColumn(rec, "cliente", "client", "azienda"); ok && raw != "" {
		clientID, err := rc.resolver.ResolveClient(ctx, raw)
		if err != nil {
			return resSkipped, fmt.Errorf("resolve client: %w", err)
		}
		p.ClientID = &clientID
	}

	existing, err := rc.store.GetProjectByName(ctx, name)
	if err != nil {
		return resSkipped, fmt.Errorf("lookup project: %w", err)
	}
	if _, err := rc.store.CreateProject(ctx, p); err != nil {
		return resSkipped, fmt.Errorf("store project: %w", err)
	}
	if existing != nil {
		return resUpdated, nil
	}
	return resInserted, nil
}
