package domain

// Role определяет роль сотрудника в административной части портала
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
)

// Caller - идентичность вызывающего, приходит от внешнего сервиса аутентификации
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor:
		return true
	}
	return false
}

// HasAny проверяет, что роль входит в список разрешенных
func (c Caller) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
