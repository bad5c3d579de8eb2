// Package domain contains the core entities of the task-tracking system:
// tenants, boards, columns, cards with their derived lifecycle state,
// entropy configuration, events, and notification bundles. Entities validate
// themselves; all persistence and orchestration lives elsewhere.
package domain
