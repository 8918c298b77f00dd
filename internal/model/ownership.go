package model

// Owned is implemented by user-scoped resources.
type Owned interface {
	Owner() string
}

// OwnedBy reports whether actorID owns the resource.
// An empty actor never owns anything.
func OwnedBy(resource Owned, actorID string) bool {
	if resource == nil || actorID == "" {
		return false
	}
	return resource.Owner() == actorID
}
