package authz

// Principal is the authenticated actor for a request. It is constructed
// once per request from the session user and discarded afterwards.
type Principal struct {
	UserID int64
	Role   Role

	// TenantID and VendorID link the user to its tenant or vendor
	// record when the role carries one.
	TenantID int64
	VendorID int64

	// AssignedPropertyIDs holds the property assignment set used by
	// the assigned scope (property managers).
	AssignedPropertyIDs []int64
}

// AssignedTo reports whether the principal's assignment set contains
// the property.
func (p *Principal) AssignedTo(propertyID int64) bool {
	for _, id := range p.AssignedPropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

// ResourceRef carries the owner/assignment references of a target
// entity, as resolved by the owning module's repository. Zero fields
// mean the entity carries no such reference.
type ResourceRef struct {
	OwnerUserID int64
	TenantID    int64
	VendorID    int64
	PropertyID  int64
}
