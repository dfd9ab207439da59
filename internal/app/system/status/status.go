// Package status holds the lifecycle values shared by users and groups.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)
