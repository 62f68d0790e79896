package ingest

import (
	"context"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func ingestVehicleRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawName, err := requireColumn(rec, "employee", "dipendente", "conducente", "autista", "driver", "nome")
	if err != nil {
		return resSkipped, err
	}
	rawVehicle, err := requireColumn(rec, "vehicle", "mezzo", "veicolo", "auto", "vehicle", "targa")
	if err != nil {
		return resSkipped, err
	}
	rawDay, err := requireColumn(rec, "date", "data", "giorno", "date")
	if err != nil {
		return resSkipped, err
	}
	rawPickup, err := requireColumn(rec, "pickup", "ritiro", "ora ritiro", "presa", "partenza", "pickup")
	if err != nil {
		return resSkipped, err
	}
	rawReturn, err := requireColumn(rec, "return", "riconsegna", "ora riconsegna", "rientro", "ritorno", "return")
	if err != nil {
		return resSkipped, err
	}

	day, err := ParseDate(rawDay)
	if err != nil {
		return resSkipped, err
	}
	pickup, err := ParseClock(day, rawPickup)
	if err != nil {
		return resSkipped, fmt.Errorf("pickup: %w", err)
	}
	ret, err := ParseClock(day, rawReturn)
	if err != nil {
		return resSkipped, fmt.Errorf("return: %w", err)
	}
	if !ret.After(pickup) {
		ret = ret.AddDate(0, 0, 1)
	}

	employeeID, err := resolveEmployee(ctx, rc, rawName)
	if err != nil {
		return resSkipped, err
	}
	vehicleID, err := rc.resolver.ResolveVehicle(ctx, rawVehicle)
	if err != nil {
		return resSkipped, fmt.Errorf("vehicle name %q not resolvable", rawVehicle)
	}

	u := &models.VehicleUsage{
		EmployeeID: employeeID,
		VehicleID:  vehicleID,
		Day:        day,
		Pickup:     pickup,
		Return:     ret,
	}
	if raw, ok := pickColumn(rec, "cliente", "client", "destinazione"); ok && raw != "" {
		if clientID, err := rc.resolver.ResolveClient(ctx, raw); err == nil {
			u.ClientID = &clientID
		}
	}

	_, inserted, err := rc.store.UpsertVehicleUsage(ctx, u)
	if err != nil {
		return resSkipped, fmt.Errorf("store vehicle usage: %w", err)
	}
	if inserted {
		return resInserted, nil
	}
	return resUpdated, nil
}
