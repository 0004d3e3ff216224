package domain

import (
	"cmp"
	"slices"
	"strings"
)

// Order is the sort key accepted by the task listing.
type Order string

const (
	// OrderPost lists the most recently created tasks first.
	OrderPost Order = "post"
	// OrderDue lists tasks by ascending due date; undated tasks come last.
	OrderDue Order = "due"
)

// ParseOrder maps a raw order key to an Order. Empty or unknown keys fall back to OrderPost.
func ParseOrder(raw string) Order {
	if Order(strings.ToLower(strings.TrimSpace(raw))) == OrderDue {
		return OrderDue
	}
	return OrderPost
}

// SortTasks orders tasks in place.
func SortTasks(tasks []Task, order Order) {
	switch order {
	case OrderDue:
		slices.SortStableFunc(tasks, compareDue)
	default:
		slices.SortStableFunc(tasks, comparePost)
	}
}

func comparePost(a, b Task) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func compareDue(a, b Task) int {
	switch {
	case a.DueAt == nil && b.DueAt != nil:
		return 1
	case a.DueAt != nil && b.DueAt == nil:
		return -1
	case a.DueAt != nil && b.DueAt != nil:
		if c := a.DueAt.Compare(*b.DueAt); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}
