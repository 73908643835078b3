// Package rolemapping manages the many-to-many association between groups
// and roles, either realm-scoped or scoped to one client.
package rolemapping

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/model"
)

// AdminAPI is the slice of the Keycloak admin client the engine needs.
// *keycloak.Client satisfies it.
type AdminAPI interface {
	GetGroupByName(ctx context.Context, realm, name string) (*model.Group, error)
	ResolveClientID(ctx context.Context, realm, clientID string) (string, error)
	GetRealmRole(ctx context.Context, realm, roleName string) (*model.Role, error)
	GetClientRole(ctx context.Context, realm, idOfClient, roleName string) (*model.Role, error)
	GetAssignedRealmGroupRoles(ctx context.Context, realm, groupID string) ([]model.Role, error)
	GetAvailableRealmGroupRoles(ctx context.Context, realm, groupID string) ([]model.Role, error)
	GetAssignedClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string) ([]model.Role, error)
	GetAvailableClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string) ([]model.Role, error)
	AddRealmGroupRoles(ctx context.Context, realm, groupID string, roles []model.Role) error
	RemoveRealmGroupRoles(ctx context.Context, realm, groupID string, roles []model.Role) error
	AddClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string, roles []model.Role) error
	RemoveClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string, roles []model.Role) error
}

// Request describes one role-mapping operation. The group may be
// addressed by server-assigned id or by name; supplying the id saves a
// lookup. A non-empty ClientID selects that client's roles; otherwise the
// roles are realm-scoped.
type Request struct {
	Realm     string
	GroupID   string
	GroupName string
	ClientID  string
	Roles     []model.RoleRef
	State     model.State
}

// Engine applies role-mapping requests against the admin API.
type Engine struct {
	api    AdminAPI
	logger *zap.Logger
}

// NewEngine creates a role-mapping engine.
func NewEngine(api AdminAPI, logger *zap.Logger) *Engine {
	return &Engine{
		api:    api,
		logger: logger.Named("rolemapping"),
	}
}

// Apply converges the group's role mappings for the requested scope.
//
// For state=present every requested role not already mapped is added;
// already-mapped roles are left alone. For state=absent every requested
// role currently mapped is removed; roles not mapped are ignored for that
// entry, and all unrequested mappings are preserved. Re-applying an
// identical request reports Changed=false and issues no mutating call.
//
// The snapshot read and the mutating write are not atomic against the
// remote store; concurrent admins racing on the same group need external
// mutual exclusion.
func (e *Engine) Apply(ctx context.Context, req Request) (*model.Result, error) {
	if req.GroupID == "" && req.GroupName == "" {
		return nil, fmt.Errorf("either group id or group name must be specified")
	}

	groupID := req.GroupID
	if groupID == "" {
		group, err := e.api.GetGroupByName(ctx, req.Realm, req.GroupName)
		if err != nil {
			return nil, fmt.Errorf("resolve group %s: %w", req.GroupName, err)
		}
		groupID = group.ID
	}

	clientScoped := req.ClientID != ""
	var idOfClient string
	if clientScoped {
		id, err := e.api.ResolveClientID(ctx, req.Realm, req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("resolve client %s: %w", req.ClientID, err)
		}
		idOfClient = id
	}

	assigned, available, err := e.snapshots(ctx, req.Realm, groupID, idOfClient, clientScoped)
	if err != nil {
		return nil, err
	}

	if len(req.Roles) == 0 {
		return model.Unchanged("nothing to do (no roles specified)", assigned), nil
	}

	desired, err := e.resolveRoles(ctx, req, idOfClient, assigned)
	if err != nil {
		return nil, err
	}

	var update []model.Role
	if req.State == model.StateAbsent {
		// Remove exactly the requested roles that are currently mapped.
		update = intersectByName(desired, assigned)
	} else {
		// Add only the requested roles the server reports as assignable;
		// roles already mapped are absent from the available set.
		update = intersectByName(desired, available)
	}

	if len(update) == 0 {
		return model.Unchanged(
			fmt.Sprintf("nothing to do, roles %s are in the desired state for group %s",
				roleNames(desired), groupID),
			assigned,
		), nil
	}

	if req.State == model.StateAbsent {
		if clientScoped {
			err = e.api.RemoveClientGroupRoles(ctx, req.Realm, groupID, idOfClient, update)
		} else {
			err = e.api.RemoveRealmGroupRoles(ctx, req.Realm, groupID, update)
		}
	} else {
		if clientScoped {
			err = e.api.AddClientGroupRoles(ctx, req.Realm, groupID, idOfClient, update)
		} else {
			err = e.api.AddRealmGroupRoles(ctx, req.Realm, groupID, update)
		}
	}
	if err != nil {
		return nil, err
	}

	endState, _, err := e.snapshots(ctx, req.Realm, groupID, idOfClient, clientScoped)
	if err != nil {
		return nil, fmt.Errorf("re-read mappings after update: %w", err)
	}

	verb := "assigned to"
	if req.State == model.StateAbsent {
		verb = "removed from"
	}

	e.logger.Info("group role mappings updated",
		zap.String("realm", req.Realm),
		zap.String("group_id", groupID),
		zap.String("client_id", req.ClientID),
		zap.String("state", string(req.State)),
		zap.Strings("roles", splitNames(update)),
	)

	return &model.Result{
		Changed:  true,
		Msg:      fmt.Sprintf("roles %s %s group %s", roleNames(update), verb, groupID),
		Existing: assigned,
		EndState: endState,
		Diff:     &model.Diff{Before: assigned, After: update},
	}, nil
}

// Current returns the group's currently assigned roles for the requested
// scope without mutating anything.
func (e *Engine) Current(ctx context.Context, req Request) ([]model.Role, error) {
	if req.GroupID == "" && req.GroupName == "" {
		return nil, fmt.Errorf("either group id or group name must be specified")
	}

	groupID := req.GroupID
	if groupID == "" {
		group, err := e.api.GetGroupByName(ctx, req.Realm, req.GroupName)
		if err != nil {
			return nil, fmt.Errorf("resolve group %s: %w", req.GroupName, err)
		}
		groupID = group.ID
	}

	if req.ClientID == "" {
		return e.api.GetAssignedRealmGroupRoles(ctx, req.Realm, groupID)
	}

	idOfClient, err := e.api.ResolveClientID(ctx, req.Realm, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client %s: %w", req.ClientID, err)
	}
	return e.api.GetAssignedClientGroupRoles(ctx, req.Realm, groupID, idOfClient)
}

// snapshots reads the assigned and available role sets for the scope.
func (e *Engine) snapshots(ctx context.Context, realm, groupID, idOfClient string, clientScoped bool) (assigned, available []model.Role, err error) {
	if clientScoped {
		assigned, err = e.api.GetAssignedClientGroupRoles(ctx, realm, groupID, idOfClient)
		if err != nil {
			return nil, nil, err
		}
		available, err = e.api.GetAvailableClientGroupRoles(ctx, realm, groupID, idOfClient)
		if err != nil {
			return nil, nil, err
		}
		return assigned, available, nil
	}

	assigned, err = e.api.GetAssignedRealmGroupRoles(ctx, realm, groupID)
	if err != nil {
		return nil, nil, err
	}
	available, err = e.api.GetAvailableRealmGroupRoles(ctx, realm, groupID)
	if err != nil {
		return nil, nil, err
	}
	return assigned, available, nil
}

// resolveRoles fills in the missing half of each role reference. A
// missing id is looked up by name against the realm or owning client; a
// missing name is looked up by id against the group's current mappings.
func (e *Engine) resolveRoles(ctx context.Context, req Request, idOfClient string, assigned []model.Role) ([]model.Role, error) {
	resolved := make([]model.Role, 0, len(req.Roles))

	for _, ref := range req.Roles {
		if ref.Name == "" && ref.ID == "" {
			return nil, fmt.Errorf("either name or id must be specified on each role")
		}

		switch {
		case ref.ID == "":
			var (
				role *model.Role
				err  error
			)
			if idOfClient == "" {
				role, err = e.api.GetRealmRole(ctx, req.Realm, ref.Name)
			} else {
				role, err = e.api.GetClientRole(ctx, req.Realm, idOfClient, ref.Name)
			}
			if err != nil {
				return nil, fmt.Errorf("resolve role %s: %w", ref.Name, err)
			}
			resolved = append(resolved, *role)

		case ref.Name == "":
			role, ok := findByID(assigned, ref.ID)
			if !ok {
				return nil, fmt.Errorf("role %s is not mapped to the group and has no name to resolve it by", ref.ID)
			}
			resolved = append(resolved, role)

		default:
			resolved = append(resolved, model.Role{
				ID:         ref.ID,
				Name:       ref.Name,
				ClientRole: idOfClient != "",
			})
		}
	}

	return resolved, nil
}

// intersectByName returns the entries of want whose names appear in have,
// preserving want's order. Name comparison is safe here because both sets
// belong to a single scope; a realm role and a client role sharing a name
// never meet in one request.
func intersectByName(want, have []model.Role) []model.Role {
	names := make(map[string]struct{}, len(have))
	for _, r := range have {
		names[r.Name] = struct{}{}
	}

	var out []model.Role
	for _, r := range want {
		if _, ok := names[r.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}

func findByID(roles []model.Role, id string) (model.Role, bool) {
	for _, r := range roles {
		if r.ID == id {
			return r, true
		}
	}
	return model.Role{}, false
}

func roleNames(roles []model.Role) string {
	return "[" + strings.Join(splitNames(roles), ", ") + "]"
}

func splitNames(roles []model.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
