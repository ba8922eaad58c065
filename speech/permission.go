package speech

import "context"

// PermissionGate asks the host for microphone access. The controller calls
// Acquire on every start attempt and never caches the answer, since access
// can be revoked between sessions. A false result is an ordinary denial,
// not a failure.
type PermissionGate interface {
	Acquire(ctx context.Context) (bool, error)
}

// PermissionFunc adapts a function to a PermissionGate.
type PermissionFunc func(ctx context.Context) (bool, error)

func (f PermissionFunc) Acquire(ctx context.Context) (bool, error) { return f(ctx) }

// GrantAlways is a gate for engines that need no host permission.
func GrantAlways() PermissionGate {
	return PermissionFunc(func(context.Context) (bool, error) { return true, nil })
}
