package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/utils"
)

var (
	_ repositories.EmployeeRepositoryInterface  = (*EmployeeRepository)(nil)
	_ repositories.EquipmentRepositoryInterface = (*EquipmentRepository)(nil)
	_ repositories.IssueRepositoryInterface     = (*IssueRepository)(nil)
)

// ---------- Employee ----------

type EmployeeRepository struct{ store *Store }

func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

func (r *EmployeeRepository) FindByID(_ context.Context, tx pgx.Tx, id uint64) (e *entities.Employee, err error) {
	r.store.read(tx, func(st *state) {
		found, ok := st.employees[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		e = &found
	})
	return e, err
}

func (r *EmployeeRepository) FindByCode(_ context.Context, tx pgx.Tx, code string) (e *entities.Employee, err error) {
	err = apperrors.ErrNotFound
	r.store.read(tx, func(st *state) {
		for _, candidate := range st.employees {
			if candidate.EmployeeCode == code {
				found := candidate
				e, err = &found, nil
				return
			}
		}
	})
	return e, err
}

func (r *EmployeeRepository) GetAll(context.Context) ([]entities.Employee, error) {
	list := make([]entities.Employee, 0)
	r.store.read(nil, func(st *state) {
		for _, e := range st.employees {
			list = append(list, e)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *EmployeeRepository) Count(context.Context) (total int64, err error) {
	r.store.read(nil, func(st *state) { total = int64(len(st.employees)) })
	return total, nil
}

func (r *EmployeeRepository) Create(_ context.Context, tx pgx.Tx, e entities.Employee) (id uint64, err error) {
	r.store.write(tx, func(st *state) {
		for _, existing := range st.employees {
			if existing.EmployeeCode == e.EmployeeCode {
				err = fmt.Errorf("сотрудник с кодом %s уже существует: %w", e.EmployeeCode, apperrors.ErrConflict)
				return
			}
		}
		id = st.nextEmployeeID
		st.nextEmployeeID++
		e.ID = id
		st.employees[id] = e
	})
	return id, err
}

func (r *EmployeeRepository) Delete(_ context.Context, tx pgx.Tx, id uint64) (err error) {
	r.store.write(tx, func(st *state) {
		if _, ok := st.employees[id]; !ok {
			err = apperrors.ErrNotFound
			return
		}
		delete(st.employees, id)
	})
	return err
}

// ---------- Equipment ----------

type EquipmentRepository struct{ store *Store }

func NewEquipmentRepository(store *Store) *EquipmentRepository {
	return &EquipmentRepository{store: store}
}

func (r *EquipmentRepository) FindByID(_ context.Context, tx pgx.Tx, id uint64) (eq *entities.Equipment, err error) {
	r.store.read(tx, func(st *state) {
		found, ok := st.equipment[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		eq = &found
	})
	return eq, err
}

func (r *EquipmentRepository) active(filter func(entities.Equipment) bool) []entities.Equipment {
	list := make([]entities.Equipment, 0)
	r.store.read(nil, func(st *state) {
		for _, eq := range st.equipment {
			if eq.IsRetired || !filter(eq) {
				continue
			}
			if eq.EmployeeID != nil {
				if owner, ok := st.employees[*eq.EmployeeID]; ok {
					eq.Employee = &owner
				}
			}
			list = append(list, eq)
		}
	})
	sortByExpiry(list)
	return list
}

func sortByExpiry(list []entities.Equipment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ExpiryDate.Equal(list[j].ExpiryDate) {
			return list[i].ExpiryDate.Before(list[j].ExpiryDate)
		}
		return list[i].ID < list[j].ID
	})
}

func (r *EquipmentRepository) GetActive(context.Context) ([]entities.Equipment, error) {
	return r.active(func(entities.Equipment) bool { return true }), nil
}

func (r *EquipmentRepository) GetActiveByEmployee(_ context.Context, employeeID uint64) ([]entities.Equipment, error) {
	return r.active(func(eq entities.Equipment) bool {
		return eq.EmployeeID != nil && *eq.EmployeeID == employeeID
	}), nil
}

func (r *EquipmentRepository) ActiveNamesByEmployee(context.Context) (map[uint64][]string, error) {
	names := make(map[uint64][]string)
	for _, eq := range r.active(func(eq entities.Equipment) bool { return eq.EmployeeID != nil }) {
		names[*eq.EmployeeID] = append(names[*eq.EmployeeID], eq.Name)
	}
	return names, nil
}

func (r *EquipmentRepository) CountAll(context.Context) (total int64, err error) {
	r.store.read(nil, func(st *state) { total = int64(len(st.equipment)) })
	return total, nil
}

func (r *EquipmentRepository) Create(_ context.Context, tx pgx.Tx, eq entities.Equipment) (id uint64, err error) {
	r.store.write(tx, func(st *state) {
		id = st.nextEquipmentID
		st.nextEquipmentID++
		eq.ID = id
		eq.Employee = nil
		st.equipment[id] = eq
	})
	return id, nil
}

func (r *EquipmentRepository) Assign(_ context.Context, tx pgx.Tx, id uint64, employeeID uint64) (err error) {
	r.store.write(tx, func(st *state) {
		eq, ok := st.equipment[id]
		if !ok || eq.IsRetired {
			err = apperrors.ErrNotFound
			return
		}
		eq.EmployeeID = utils.ToPtr(employeeID)
		st.equipment[id] = eq
	})
	return err
}

func (r *EquipmentRepository) UnassignAllForEmployee(_ context.Context, tx pgx.Tx, employeeID uint64) (n int64, err error) {
	r.store.write(tx, func(st *state) {
		for id, eq := range st.equipment {
			if eq.EmployeeID != nil && *eq.EmployeeID == employeeID {
				eq.EmployeeID = nil
				st.equipment[id] = eq
				n++
			}
		}
	})
	return n, nil
}

func (r *EquipmentRepository) UpdateLifecycle(_ context.Context, tx pgx.Tx, eq entities.Equipment) (err error) {
	r.store.write(tx, func(st *state) {
		stored, ok := st.equipment[eq.ID]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		stored.EmployeeID = eq.EmployeeID
		stored.IsRetired = eq.IsRetired
		stored.RetiredOn = nil
		if eq.IsRetired {
			stored.RetiredOn = eq.RetiredOn
		}
		st.equipment[eq.ID] = stored
	})
	return err
}

// ---------- Issue ----------

type IssueRepository struct{ store *Store }

func NewIssueRepository(store *Store) *IssueRepository {
	return &IssueRepository{store: store}
}

func (r *IssueRepository) FindByID(_ context.Context, tx pgx.Tx, id uint64) (i *entities.Issue, err error) {
	r.store.read(tx, func(st *state) {
		found, ok := st.issues[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		i = &found
	})
	return i, err
}

func (r *IssueRepository) list(filter func(entities.Issue) bool) []entities.IssueListItem {
	list := make([]entities.IssueListItem, 0)
	r.store.read(nil, func(st *state) {
		for _, issue := range st.issues {
			if !filter(issue) {
				continue
			}
			item := entities.IssueListItem{Issue: issue}
			if eq, ok := st.equipment[issue.EquipmentID]; ok {
				item.EquipmentName = eq.Name
			}
			if issue.RaisedByEmployeeID != nil {
				if raiser, ok := st.employees[*issue.RaisedByEmployeeID]; ok {
					item.RaisedBy = &raiser
				}
			}
			list = append(list, item)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].RaisedOn.Equal(list[j].RaisedOn) {
			return list[i].RaisedOn.After(list[j].RaisedOn)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func (r *IssueRepository) GetAll(context.Context) ([]entities.IssueListItem, error) {
	return r.list(func(entities.Issue) bool { return true }), nil
}

func (r *IssueRepository) GetByEquipment(_ context.Context, equipmentID uint64) ([]entities.IssueListItem, error) {
	return r.list(func(i entities.Issue) bool { return i.EquipmentID == equipmentID }), nil
}

func (r *IssueRepository) CountOpen(context.Context) (total int64, err error) {
	r.store.read(nil, func(st *state) {
		for _, i := range st.issues {
			if !i.IsResolved {
				total++
			}
		}
	})
	return total, nil
}

func (r *IssueRepository) Create(_ context.Context, tx pgx.Tx, issue entities.Issue) (id uint64, err error) {
	r.store.write(tx, func(st *state) {
		if _, ok := st.equipment[issue.EquipmentID]; !ok {
			err = fmt.Errorf("equipment %d: %w", issue.EquipmentID, apperrors.ErrNotFound)
			return
		}
		id = st.nextIssueID
		st.nextIssueID++
		issue.ID = id
		st.issues[id] = issue
	})
	return id, err
}

func (r *IssueRepository) UpdateResolution(_ context.Context, tx pgx.Tx, issue entities.Issue) (err error) {
	r.store.write(tx, func(st *state) {
		stored, ok := st.issues[issue.ID]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		stored.IsResolved = issue.IsResolved
		stored.ResolvedOn = issue.ResolvedOn
		st.issues[issue.ID] = stored
	})
	return err
}

func (r *IssueRepository) Delete(_ context.Context, tx pgx.Tx, id uint64) (err error) {
	r.store.write(tx, func(st *state) {
		if _, ok := st.issues[id]; !ok {
			err = apperrors.ErrNotFound
			return
		}
		delete(st.issues, id)
	})
	return err
}

func (r *IssueRepository) ClearRaiser(_ context.Context, tx pgx.Tx, employeeID uint64) (n int64, err error) {
	r.store.write(tx, func(st *state) {
		for id, issue := range st.issues {
			if issue.RaisedByEmployeeID != nil && *issue.RaisedByEmployeeID == employeeID {
				issue.RaisedByEmployeeID = nil
				st.issues[id] = issue
				n++
			}
		}
	})
	return n, nil
}
