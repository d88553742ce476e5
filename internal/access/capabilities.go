// Package access вычисляет набор доступных действий по аутентификации и роли зрителя.
package access

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

// Viewer текущий пользователь. Нулевое значение соответствует анониму.
type Viewer struct {
	ID   uuid.UUID
	Role string
}

// Anonymous неаутентифицированный зритель.
var Anonymous = Viewer{}

func (v Viewer) Authenticated() bool {
	return v.ID != uuid.Nil
}

func (v Viewer) IsHost() bool {
	return v.Authenticated() && models.NormalizeRole(v.Role) == models.RoleHost
}

func (v Viewer) IsSeeker() bool {
	return v.Authenticated() && models.NormalizeRole(v.Role) == models.RoleSeeker
}

// Action действие, которое может быть разрешено зрителю.
type Action string

const (
	ActionDiscover          Action = "discover"
	ActionBookmark          Action = "bookmark"
	ActionSchedule          Action = "schedule"
	ActionCancelSession     Action = "cancel_session"
	ActionCreateOpportunity Action = "create_opportunity"
	ActionEditOpportunity   Action = "edit_opportunity"
	ActionDeleteOpportunity Action = "delete_opportunity"
	ActionBookmarkDashboard Action = "bookmark_dashboard"
	ActionSessionsDashboard Action = "sessions_dashboard"
	ActionManageDashboard   Action = "manage_dashboard"
	ActionIncomingDashboard Action = "incoming_sessions_dashboard"
)

// Capabilities набор разрешённых действий.
type Capabilities struct {
	Authenticated bool     `json:"authenticated"`
	Role          string   `json:"role,omitempty"`
	Actions       []Action `json:"actions"`
	set           map[Action]struct{}
}

// For чистая функция (аутентифицирован?, роль) → набор возможностей.
// Хостам закладки не показываются.
func For(v Viewer) Capabilities {
	var actions []Action
	switch {
	case !v.Authenticated():
		actions = []Action{ActionDiscover}
	case v.IsHost():
		actions = []Action{
			ActionDiscover,
			ActionCreateOpportunity,
			ActionEditOpportunity,
			ActionDeleteOpportunity,
			ActionManageDashboard,
			ActionIncomingDashboard,
		}
	default:
		actions = []Action{
			ActionDiscover,
			ActionBookmark,
			ActionSchedule,
			ActionCancelSession,
			ActionBookmarkDashboard,
			ActionSessionsDashboard,
		}
	}

	caps := Capabilities{
		Authenticated: v.Authenticated(),
		Actions:       actions,
		set:           make(map[Action]struct{}, len(actions)),
	}
	if v.Authenticated() {
		caps.Role = models.NormalizeRole(v.Role)
	}
	for _, a := range actions {
		caps.set[a] = struct{}{}
	}
	return caps
}

func (c Capabilities) Can(a Action) bool {
	_, ok := c.set[a]
	return ok
}

// Require возвращает ошибку, если действие недоступно зрителю:
// Unauthenticated для анонима, Forbidden для неподходящей роли.
func Require(v Viewer, a Action) error {
	if For(v).Can(a) {
		return nil
	}
	if !v.Authenticated() {
		return apperror.ErrUnauthenticated
	}
	return apperror.ErrForbidden
}

// CanEdit проверяет, что зритель может менять возможность: только хост-владелец.
func CanEdit(v Viewer, opp models.Opportunity) error {
	if err := Require(v, ActionEditOpportunity); err != nil {
		return err
	}
	if !opp.OwnedBy(v.ID) {
		return apperror.New(apperror.ErrCodeForbidden, "возможность принадлежит другому хосту")
	}
	return nil
}
