package keycloak

// ComputeRoles returns the roles granted to clientID minus the roles denied
// for the same client. Order follows the first occurrence in the grant list.
// A missing resource_access claim yields no roles. Only the entries for
// clientID are decoded; role data of other clients is never inspected.
func ComputeRoles(result *IntrospectionResult, clientID string) ([]string, error) {
	roles := []string{}
	if result == nil || !result.HasResourceAccess() {
		return roles, nil
	}

	access, ok, err := result.ClientAccess(clientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return roles, nil
	}

	deniedRoles, err := result.DeniedRolesFor(clientID)
	if err != nil {
		return nil, err
	}
	denied := make(map[string]struct{}, len(deniedRoles))
	for _, role := range deniedRoles {
		denied[role] = struct{}{}
	}

	seen := make(map[string]struct{}, len(access.Roles))
	for _, role := range access.Roles {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		if _, isDenied := denied[role]; isDenied {
			continue
		}
		roles = append(roles, role)
	}
	return roles, nil
}
