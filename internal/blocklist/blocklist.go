// Package blocklist edits the set of applications excluded from capture.
package blocklist

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// errUnchanged aborts an update that would not change the list
var errUnchanged = errors.New("blocklist unchanged")

// Blocklist reads and writes the excludedApps setting. Edits go through
// Store.Update, so they compose with writes made directly to the setting.
type Blocklist struct {
	store *settings.Store
}

func New(store *settings.Store) *Blocklist {
	return &Blocklist{store: store}
}

// List returns the excluded bundle identifiers, sorted
func (b *Blocklist) List() []string {
	return b.store.Strings(settings.KeyExcludedApps)
}

// Contains reports whether bundleID is excluded
func (b *Blocklist) Contains(bundleID string) bool {
	_, found := slices.BinarySearch(b.List(), strings.TrimSpace(bundleID))
	return found
}

// Add excludes the given applications. Already excluded ones are ignored.
// A persistence warning from the store is returned as is.
func (b *Blocklist) Add(bundleIDs ...string) error {
	for _, id := range bundleIDs {
		if !settings.ValidBundleID(strings.TrimSpace(id)) {
			return fmt.Errorf("%w: %q is not a bundle identifier", apperrors.ErrInvalidValue, id)
		}
	}
	return b.edit(func(current []string) []string {
		return append(current, bundleIDs...)
	})
}

// Remove drops the given applications from the list. Unknown ones are ignored.
func (b *Blocklist) Remove(bundleIDs ...string) error {
	return b.edit(func(current []string) []string {
		return slices.DeleteFunc(current, func(id string) bool {
			return slices.ContainsFunc(bundleIDs, func(r string) bool { return strings.TrimSpace(r) == id })
		})
	})
}

// Clear removes every entry
func (b *Blocklist) Clear() error {
	return b.store.Reset(settings.KeyExcludedApps)
}

func (b *Blocklist) edit(fn func(current []string) []string) error {
	err := b.store.Update(settings.KeyExcludedApps, func(v any) (any, error) {
		current, _ := v.([]string)
		before := slices.Clone(current)
		next := fn(current)
		if slices.Equal(before, normalized(next)) {
			return nil, errUnchanged
		}
		return next, nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// normalized sorts and dedupes ids the way the store keeps them
func normalized(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strings.TrimSpace(id))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
