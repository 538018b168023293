// Package service holds the booking domain logic. Stores sit below it;
// BookingService works on bookings, CascadeCoordinator deletes parents
// together with their bookings, and the user, event and category services
// call the coordinator instead of deleting parents themselves.
package service

import (
	"errors"

	"github.com/eventix/ticketing/ticketing-service/repository"
)

// notFoundAs replaces a repository ErrNotFound with a domain identity.
func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}

// duplicateAs replaces a repository ErrDuplicate with a domain identity.
func duplicateAs(err, target error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return target
	}
	return err
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
