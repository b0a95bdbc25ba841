package entities

// PrincipalKind - кто выполняет запрос.
type PrincipalKind string

const (
	PrincipalAnonymous PrincipalKind = "anonymous"
	PrincipalEmployee  PrincipalKind = "employee"
	PrincipalAdmin     PrincipalKind = "admin"
)

// Principal определяется один раз на запрос и дальше только читается.
// Для сотрудника заполнены EmployeeID, EmployeeCode и Name.
type Principal struct {
	kind         PrincipalKind
	employeeID   uint64
	employeeCode string
	name         string
}

func AnonymousPrincipal() Principal {
	return Principal{kind: PrincipalAnonymous}
}

func EmployeePrincipal(id uint64, code, name string) Principal {
	return Principal{kind: PrincipalEmployee, employeeID: id, employeeCode: code, name: name}
}

func AdminPrincipal() Principal {
	return Principal{kind: PrincipalAdmin}
}

func (p Principal) Kind() PrincipalKind {
	if p.kind == "" {
		return PrincipalAnonymous
	}
	return p.kind
}

func (p Principal) IsAdmin() bool    { return p.kind == PrincipalAdmin }
func (p Principal) IsEmployee() bool { return p.kind == PrincipalEmployee && p.employeeID != 0 }

// EmployeeID возвращает id сотрудника и false для админа и анонима.
func (p Principal) EmployeeID() (uint64, bool) {
	if !p.IsEmployee() {
		return 0, false
	}
	return p.employeeID, true
}

func (p Principal) EmployeeCode() string { return p.employeeCode }
func (p Principal) Name() string         { return p.name }
