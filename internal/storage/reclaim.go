package storage

import "log"

// ReclaimPolicy decides what happens to image files once the catalog no longer
// references them (a replaced image, or the images of a deleted product).
// Cleanup is isolated here so it can be swapped without touching the service.
type ReclaimPolicy interface {
	Reclaim(store Store, names ...string)
}

// KeepFiles leaves superseded files in place. This is the default: public
// pages may still link a previously shared image.
type KeepFiles struct{}

func (KeepFiles) Reclaim(Store, ...string) {}

// DeleteFiles removes superseded files from the store. Failures are logged and
// otherwise ignored; the row mutation has already committed.
type DeleteFiles struct{}

func (DeleteFiles) Reclaim(store Store, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := store.Remove(name); err != nil {
			log.Printf("Warning: failed to reclaim image %s: %v", name, err)
		}
	}
}
