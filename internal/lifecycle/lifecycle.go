// Package lifecycle содержит правила, связывающие решение заявки с выводом
// оборудования из эксплуатации, и расчёт статуса срока годности.
// Здесь нет ввода-вывода: сервисы читают сущности, применяют правила и сохраняют результат.
package lifecycle

import (
	"fmt"
	"time"

	"safety-tracker/internal/entities"
)

type ExpiryStatus string

const (
	StatusOk         ExpiryStatus = "ok"
	StatusNearExpiry ExpiryStatus = "near_expiry"
)

type Transition string

const (
	TransitionResolved Transition = "resolved"
	TransitionReopened Transition = "reopened"
)

const DateLayout = "2006-01-02"

// DateOnly отбрасывает время, сохраняя календарную дату в зоне t.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату вида 2006-01-02.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// NearExpiryCutoff - последняя дата, которая ещё считается "скоро истекает".
func NearExpiryCutoff(today time.Time, thresholdDays int) time.Time {
	return DateOnly(today).AddDate(0, 0, thresholdDays)
}

// Classify: NearExpiry, если expiry <= today + thresholdDays.
func Classify(expiry, today time.Time, thresholdDays int) ExpiryStatus {
	if DateOnly(expiry).After(NearExpiryCutoff(today, thresholdDays)) {
		return StatusOk
	}
	return StatusNearExpiry
}

// DaysLeft - количество дней до истечения; отрицательное, если срок уже прошёл.
func DaysLeft(expiry, today time.Time) int {
	return int(DateOnly(expiry).Sub(DateOnly(today)).Hours() / 24)
}

// ResolveIssueAndRetireEquipment: Open -> Resolved. Оборудование выводится из
// эксплуатации и снимается с сотрудника независимо от остальных заявок.
func ResolveIssueAndRetireEquipment(issue entities.Issue, eq *entities.Equipment, now time.Time) (entities.Issue, *entities.Equipment) {
	stamp := now.UTC()
	issue.IsResolved = true
	issue.ResolvedOn = &stamp

	if eq == nil {
		return issue, nil
	}
	retired := *eq
	retired.EmployeeID = nil
	retired.IsRetired = true
	retired.RetiredOn = &stamp
	retired.Employee = nil
	return issue, &retired
}

// ReopenIssueAndReactivateEquipment: Resolved -> Open. Оборудование возвращается
// в работу безусловно: другие заявки и срок годности не проверяются,
// прежнее назначение не восстанавливается.
func ReopenIssueAndReactivateEquipment(issue entities.Issue, eq *entities.Equipment) (entities.Issue, *entities.Equipment) {
	issue.IsResolved = false
	issue.ResolvedOn = nil

	if eq == nil {
		return issue, nil
	}
	active := *eq
	active.IsRetired = false
	active.RetiredOn = nil
	return issue, &active
}

// Toggle выбирает переход по текущему состоянию заявки.
func Toggle(issue entities.Issue, eq *entities.Equipment, now time.Time) (entities.Issue, *entities.Equipment, Transition) {
	if issue.IsResolved {
		i, e := ReopenIssueAndReactivateEquipment(issue, eq)
		return i, e, TransitionReopened
	}
	i, e := ResolveIssueAndRetireEquipment(issue, eq, now)
	return i, e, TransitionResolved
}

// CheckEquipment проверяет инвариант is_retired <=> retired_on != nil.
func CheckEquipment(eq entities.Equipment) error {
	if eq.IsRetired != (eq.RetiredOn != nil) {
		return fmt.Errorf("equipment %d: is_retired=%t but retired_on set=%t", eq.ID, eq.IsRetired, eq.RetiredOn != nil)
	}
	if eq.IsRetired && eq.EmployeeID != nil {
		return fmt.Errorf("equipment %d: retired but still assigned to employee %d", eq.ID, *eq.EmployeeID)
	}
	return nil
}

// CheckIssue проверяет инвариант is_resolved <=> resolved_on != nil.
func CheckIssue(issue entities.Issue) error {
	if issue.IsResolved != (issue.ResolvedOn != nil) {
		return fmt.Errorf("issue %d: is_resolved=%t but resolved_on set=%t", issue.ID, issue.IsResolved, issue.ResolvedOn != nil)
	}
	return nil
}
