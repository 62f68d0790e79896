package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) CreateEmployee(ctx context.Context, e *models.Employee) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("employee is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO employees (first_name, last_name, full_name, email, role, daily_cost, active, updated) VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		e.FirstName, e.LastName, e.FullName, nullStr(e.Email), nullStr(e.Role), e.DailyCost, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error) {
	row := r.h.QueryRow(ctx, `SELECT id, first_name, last_name, full_name, email, role, daily_cost, active, updated FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *SQLiteRepo) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, first_name, last_name, full_name, email, role, daily_cost, active, updated FROM employees WHERE active = 1 ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		e, err := scanEmployeeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	if e == nil {
		return fmt.Errorf("employee is nil")
	}

	_, err := r.h.Exec(ctx, `UPDATE employees SET first_name = ?, last_name = ?, full_name = ?, email = ?, role = ?, daily_cost = ?, updated = ? WHERE id = ?`,
		e.FirstName, e.LastName, e.FullName, nullStr(e.Email), nullStr(e.Role), e.DailyCost, now(), e.ID)
	return err
}

// DeactivateEmployee flips the active flag. Employees are never hard-deleted.
func (r *SQLiteRepo) DeactivateEmployee(ctx context.Context, id int64) error {
	_, err := r.h.Exec(ctx, `UPDATE employees SET active = 0, updated = ? WHERE id = ?`, now(), id)
	return err
}

func (r *SQLiteRepo) CreateAlias(ctx context.Context, a *models.EmployeeAlias) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("alias is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO employee_aliases (employee_id, alias_first, alias_last, alias_full, source, note, created) VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(alias_full) DO UPDATE SET employee_id=excluded.employee_id, source=excluded.source, note=excluded.note`,
		a.EmployeeID, a.AliasFirst, a.AliasLast, a.AliasFull, a.Source, a.Note, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListAliases(ctx context.Context) ([]models.EmployeeAlias, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, employee_id, alias_first, alias_last, alias_full, source, note, created FROM employee_aliases ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmployeeAlias
	for rows.Next() {
		var a models.EmployeeAlias
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.AliasFirst, &a.AliasLast, &a.AliasFull, &a.Source, &a.Note, &a.Created); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CreateLegacyEmployee(ctx context.Context, l *models.LegacyEmployee) (int64, error) {
	if l == nil {
		return 0, fmt.Errorf("legacy employee is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO legacy_employees (employee_id, first_name, last_name, created) VALUES (?, ?, ?, ?) ON CONFLICT(employee_id) DO NOTHING`,
		l.EmployeeID, l.FirstName, l.LastName, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetLegacyByName(ctx context.Context, first, last string) (*models.LegacyEmployee, error) {
	row := r.h.QueryRow(ctx, `SELECT id, employee_id, first_name, last_name, created FROM legacy_employees WHERE first_name = ? COLLATE NOCASE AND last_name = ? COLLATE NOCASE`, first, last)
	var l models.LegacyEmployee
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.FirstName, &l.LastName, &l.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *SQLiteRepo) GetLegacyByEmployeeID(ctx context.Context, employeeID int64) (*models.LegacyEmployee, error) {
	row := r.h.QueryRow(ctx, `SELECT id, employee_id, first_name, last_name, created FROM legacy_employees WHERE employee_id = ?`, employeeID)
	var l models.LegacyEmployee
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.FirstName, &l.LastName, &l.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row *sql.Row) (*models.Employee, error) {
	return scanEmployeeRows(row)
}

func scanEmployeeRows(s rowScanner) (*models.Employee, error) {
	var e models.Employee
	var email, role sql.NullString
	var cost sql.NullFloat64
	var active int
	if err := s.Scan(&e.ID, &e.FirstName, &e.LastName, &e.FullName, &email, &role, &cost, &active, &e.Updated); err != nil {
		return nil, err
	}
	if email.Valid {
		e.Email = email.String
	}
	if role.Valid {
		e.Role = role.String
	}
	if cost.Valid {
		c := cost.Float64
		e.DailyCost = &c
	}
	e.Active = active == 1
	return &e, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
