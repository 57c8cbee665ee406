// Package weight maintains an animal's derived current weight from its
// weight-record history. It is the single source of truth for the deleted-ID
// set and the derived weight.
package weight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

// Reconciler loads, adds and deletes weight records while keeping the animal's
// denormalized current weight consistent with the surviving history.
//
// Deletions are optimistic: the record ID is persisted into a tombstone set
// before the row delete runs, so a reload cannot resurrect a record whose
// delete is still in flight or failed upstream.
type Reconciler struct {
	store store.Store
	now   func() time.Time
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(s store.Store) *Reconciler {
	return &Reconciler{store: s, now: time.Now}
}

func deletedKey(animalID uuid.UUID) string {
	return "deleted_weights:" + animalID.String()
}

// Load returns the animal's surviving weight records, newest first. An animal
// that carries a legacy single weight value but has no record history gets an
// initial record dated now synthesized from it (best-effort; a failed
// synthesis does not fail the load). The derived current weight is written
// back to the animal whenever it changed.
func (r *Reconciler) Load(ctx context.Context, ownerID, animalID uuid.UUID) ([]model.WeightRecord, error) {
	animal, err := r.store.GetAnimal(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}

	records, err := r.surviving(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 && animal.WeightGrams != nil && *animal.WeightGrams > 0 {
		// Tombstones mean the animal HAD records and the keeper deleted
		// them; re-seeding would resurrect a deleted weight.
		deleted, err := r.deletedSet(ctx, ownerID, animalID)
		if err != nil {
			return nil, err
		}
		if len(deleted) == 0 {
			seed := model.WeightRecord{
				ID:         uuid.New(),
				AnimalID:   animalID,
				OwnerID:    ownerID,
				Grams:      *animal.WeightGrams,
				RecordedAt: r.now().UTC(),
			}
			if err := r.store.InsertWeightRecord(ctx, &seed); err != nil {
				log.Printf("Warning: failed to seed initial weight record for animal %s: %v", animalID, err)
			} else {
				records = []model.WeightRecord{seed}
			}
		}
	}

	if err := r.writeBack(ctx, animal, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Add appends a new weight record and reconciles the derived weight against
// the store.
func (r *Reconciler) Add(ctx context.Context, ownerID, animalID uuid.UUID, grams float64, recordedAt time.Time) (*model.WeightRecord, error) {
	animal, err := r.store.GetAnimal(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}

	record := model.WeightRecord{
		ID:         uuid.New(),
		AnimalID:   animalID,
		OwnerID:    ownerID,
		Grams:      grams,
		RecordedAt: recordedAt.UTC(),
	}
	if err := r.store.InsertWeightRecord(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to add weight record: %w", err)
	}

	records, err := r.surviving(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}
	if err := r.writeBack(ctx, animal, records); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a weight record. The ID is tombstoned and the tombstone set
// persisted before the row delete, and deleting an already-tombstoned ID is a
// no-op, so the operation is idempotent even while a first delete is still in
// flight. A failed row delete is logged, not returned: the tombstone already
// masks the record.
func (r *Reconciler) Delete(ctx context.Context, ownerID, animalID, recordID uuid.UUID) error {
	animal, err := r.store.GetAnimal(ctx, ownerID, animalID)
	if err != nil {
		return err
	}

	deleted, err := r.deletedSet(ctx, ownerID, animalID)
	if err != nil {
		return err
	}
	if _, ok := deleted[recordID]; ok {
		return nil
	}
	deleted[recordID] = struct{}{}
	if err := r.saveDeletedSet(ctx, ownerID, animalID, deleted); err != nil {
		return fmt.Errorf("failed to persist deleted-ID set: %w", err)
	}

	if err := r.store.DeleteWeightRecord(ctx, ownerID, recordID); err != nil {
		log.Printf("Warning: failed to delete weight record %s (masked by tombstone): %v", recordID, err)
	}

	records, err := r.surviving(ctx, ownerID, animalID)
	if err != nil {
		return err
	}
	return r.writeBack(ctx, animal, records)
}

// surviving fetches the history and masks every tombstoned ID.
func (r *Reconciler) surviving(ctx context.Context, ownerID, animalID uuid.UUID) ([]model.WeightRecord, error) {
	records, err := r.store.ListWeightRecords(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}
	deleted, err := r.deletedSet(ctx, ownerID, animalID)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return records, nil
	}
	kept := records[:0]
	for _, record := range records {
		if _, ok := deleted[record.ID]; !ok {
			kept = append(kept, record)
		}
	}
	return kept, nil
}

// writeBack persists the derived current weight when it differs from the
// animal's stored value. With no surviving records the stored value is left
// alone: it doubles as the legacy fallback weight.
func (r *Reconciler) writeBack(ctx context.Context, animal *model.Animal, records []model.WeightRecord) error {
	if len(records) == 0 {
		return nil
	}
	latest := records[0]
	for _, record := range records[1:] {
		if record.RecordedAt.After(latest.RecordedAt) {
			latest = record
		}
	}
	current := latest.Grams
	if animal.WeightGrams != nil && *animal.WeightGrams == current {
		return nil
	}
	if err := r.store.SetAnimalWeight(ctx, animal.OwnerID, animal.ID, &current); err != nil {
		return fmt.Errorf("failed to persist derived weight: %w", err)
	}
	animal.WeightGrams = &current
	return nil
}

func (r *Reconciler) deletedSet(ctx context.Context, ownerID, animalID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	raw, err := r.store.GetClientState(ctx, ownerID, deletedKey(animalID))
	if errors.Is(err, store.ErrNotFound) {
		return map[uuid.UUID]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("corrupt deleted-ID set for animal %s: %w", animalID, err)
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *Reconciler) saveDeletedSet(ctx context.Context, ownerID, animalID uuid.UUID, set map[uuid.UUID]struct{}) error {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.store.SetClientState(ctx, ownerID, deletedKey(animalID), string(raw))
}
