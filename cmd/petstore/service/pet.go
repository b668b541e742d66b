package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lyzr/petstore/cmd/petstore/models"
	"github.com/lyzr/petstore/common/cache"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/events"
	"github.com/lyzr/petstore/common/logger"
)

// TxRunner opens a single read-committed transaction around fn
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(q db.Querier) error) error
}

// TagResolver resolves mixed id/name tag references and garbage-collects
// unreachable tags, all inside the caller's transaction
type TagResolver interface {
	Resolve(ctx context.Context, q db.Querier, refs []models.TagRef) (*models.ResolvedTags, error)
	DeleteDangling(ctx context.Context, q db.Querier, tagIDs []int64) ([]int64, error)
}

// CategoryResolver resolves a single category reference and garbage-collects
// unreferenced categories
type CategoryResolver interface {
	Resolve(ctx context.Context, q db.Querier, ref models.CategoryRef) (*models.Category, error)
	DeleteIfOrphaned(ctx context.Context, q db.Querier, categoryID, excludePetID int64) (bool, error)
}

// PhotoReconciler reconciles a pet's stored photo urls to a target set
type PhotoReconciler interface {
	Reconcile(ctx context.Context, q db.Querier, petID int64, target []string) ([]models.PhotoURL, error)
	DeleteByPet(ctx context.Context, q db.Querier, petID int64) error
}

// PetStore is the pet row, bridge table and aggregate read surface
type PetStore interface {
	Get(ctx context.Context, q db.Querier, petID int64) (*models.Pet, error)
	Insert(ctx context.Context, q db.Querier, name string, status int, categoryID int64) (int64, error)
	Update(ctx context.Context, q db.Querier, petID int64, name string, status int, categoryID int64) error
	UpdatePartial(ctx context.Context, q db.Querier, petID int64, name *string, status *int, categoryID *int64) error
	Delete(ctx context.Context, q db.Querier, petID int64) error
	LinkTags(ctx context.Context, q db.Querier, petID int64, tagIDs []int64) error
	ReconcileTagLinks(ctx context.Context, q db.Querier, petID int64, tagIDs []int64) error
	ReadAggregate(ctx context.Context, q db.Querier, petID int64) (*models.PetAggregate, error)
}

// PetService orchestrates pet aggregate mutations. Every mutation runs in
// one read-committed transaction; a concurrent reader sees the fully-old or
// fully-new aggregate, never an intermediate state.
type PetService struct {
	tx         TxRunner
	writer     db.Querier
	reader     db.Querier
	pets       PetStore
	tags       TagResolver
	categories CategoryResolver
	photos     PhotoReconciler
	cache      cache.Cache // optional
	cacheTTL   time.Duration
	bus        events.Bus // optional
	log        *logger.Logger
}

// NewPetService creates a new pet aggregate service
func NewPetService(
	tx TxRunner,
	writer db.Querier,
	reader db.Querier,
	pets PetStore,
	tags TagResolver,
	categories CategoryResolver,
	photos PhotoReconciler,
	readCache cache.Cache,
	cacheTTL time.Duration,
	bus events.Bus,
	log *logger.Logger,
) *PetService {
	return &PetService{
		tx:         tx,
		writer:     writer,
		reader:     reader,
		pets:       pets,
		tags:       tags,
		categories: categories,
		photos:     photos,
		cache:      readCache,
		cacheTTL:   cacheTTL,
		bus:        bus,
		log:        log,
	}
}

// Create creates a pet aggregate: tags resolved, category created by name,
// pet row, photo rows and bridge rows all inside one transaction. Any
// failure aborts the whole transaction; no partial pet is ever visible.
func (s *PetService) Create(ctx context.Context, cmd models.PetCreate) (*models.PetAggregate, error) {
	var petID int64

	err := s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		resolved, err := s.tags.Resolve(ctx, q, cmd.Tags)
		if err != nil {
			return err
		}

		category, err := s.categories.Resolve(ctx, q, models.CategoryRef{Name: &cmd.Category.Name})
		if err != nil {
			return err
		}

		petID, err = s.pets.Insert(ctx, q, cmd.Name, cmd.Status, category.ID)
		if err != nil {
			return err
		}

		if _, err := s.photos.Reconcile(ctx, q, petID, cmd.PhotoURLs); err != nil {
			return err
		}

		return s.pets.LinkTags(ctx, q, petID, tagIDs(resolved.All))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("created pet", "pet_id", petID, "name", cmd.Name)
	s.publish(ctx, events.TopicPetCreated, petID)

	return s.readBack(ctx, petID)
}

// Get loads the aggregate through the cache and the replica-tolerant read
// path
func (s *PetService) Get(ctx context.Context, petID int64) (*models.PetAggregate, error) {
	if aggregate := s.cachedAggregate(ctx, petID); aggregate != nil {
		return aggregate, nil
	}

	aggregate, err := s.pets.ReadAggregate(ctx, s.reader, petID)
	if err != nil {
		return nil, err
	}

	s.storeAggregate(ctx, aggregate)
	return aggregate, nil
}

// Update fully replaces the aggregate's mutable state: tags are resolved
// and the bridge rows rewritten to match, photo urls reconciled, scalar
// columns and category reference replaced.
func (s *PetService) Update(ctx context.Context, petID int64, cmd models.PetUpdate) (*models.PetAggregate, error) {
	// Existence check before the write transaction opens
	if _, err := s.pets.Get(ctx, s.writer, petID); err != nil {
		return nil, err
	}

	err := s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		resolved, err := s.tags.Resolve(ctx, q, cmd.Tags)
		if err != nil {
			return err
		}

		category, err := s.categories.Resolve(ctx, q, cmd.Category)
		if err != nil {
			return err
		}

		if _, err := s.photos.Reconcile(ctx, q, petID, cmd.PhotoURLs); err != nil {
			return err
		}

		if err := s.pets.Update(ctx, q, petID, cmd.Name, cmd.Status, category.ID); err != nil {
			return err
		}

		return s.pets.ReconcileTagLinks(ctx, q, petID, tagIDs(resolved.All))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("updated pet", "pet_id", petID)
	s.invalidate(ctx, petID)
	s.publish(ctx, events.TopicPetUpdated, petID)

	return s.readBack(ctx, petID)
}

// Modify partially updates the aggregate. Only the supplied fields are
// touched; absent fields are omitted from the update statement entirely.
func (s *PetService) Modify(ctx context.Context, petID int64, patch models.PetPatch) (*models.PetAggregate, error) {
	// Existence check before the write transaction opens
	if _, err := s.pets.Get(ctx, s.writer, petID); err != nil {
		return nil, err
	}

	err := s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		if patch.Tags != nil {
			resolved, err := s.tags.Resolve(ctx, q, *patch.Tags)
			if err != nil {
				return err
			}
			if err := s.pets.ReconcileTagLinks(ctx, q, petID, tagIDs(resolved.All)); err != nil {
				return err
			}
		}

		var categoryID *int64
		if patch.Category != nil {
			category, err := s.categories.Resolve(ctx, q, *patch.Category)
			if err != nil {
				return err
			}
			categoryID = &category.ID
		}

		if patch.PhotoURLs != nil {
			if _, err := s.photos.Reconcile(ctx, q, petID, *patch.PhotoURLs); err != nil {
				return err
			}
		}

		return s.pets.UpdatePartial(ctx, q, petID, patch.Name, patch.Status, categoryID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("modified pet", "pet_id", petID)
	s.invalidate(ctx, petID)
	s.publish(ctx, events.TopicPetUpdated, petID)

	return s.readBack(ctx, petID)
}

// Delete removes the aggregate and garbage-collects tags and the category
// that no other pet reaches anymore. Returns a snapshot of the aggregate as
// it was before deletion.
//
// Two concurrent deletes of pets sharing a category can both pass the
// orphan check under read committed and leak the category row. Accepted:
// the leaked row corrupts nothing and a later create-by-name re-adopts the
// name.
func (s *PetService) Delete(ctx context.Context, petID int64) (*models.PetAggregate, error) {
	// Pre-deletion snapshot, also the NotFound check and the return value
	snapshot, err := s.pets.ReadAggregate(ctx, s.writer, petID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(q db.Querier) error {
		// Bridge rows go first so the tag reachability check is accurate
		if err := s.pets.ReconcileTagLinks(ctx, q, petID, nil); err != nil {
			return err
		}

		deleted, err := s.tags.DeleteDangling(ctx, q, tagIDs(snapshot.Tags))
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			s.log.Debug("deleted dangling tags", "pet_id", petID, "tag_ids", deleted)
		}

		if err := s.photos.DeleteByPet(ctx, q, petID); err != nil {
			return err
		}

		// Pet row goes before the category check so the deleted pet does
		// not count as a remaining reference
		if err := s.pets.Delete(ctx, q, petID); err != nil {
			return err
		}

		orphaned, err := s.categories.DeleteIfOrphaned(ctx, q, snapshot.Category.ID, petID)
		if err != nil {
			return err
		}
		if orphaned {
			s.log.Debug("deleted dangling category", "pet_id", petID, "category_id", snapshot.Category.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deleted pet", "pet_id", petID)
	s.invalidate(ctx, petID)
	s.publish(ctx, events.TopicPetDeleted, petID)

	return snapshot, nil
}

// readBack loads the committed aggregate through the primary and refreshes
// the cache
func (s *PetService) readBack(ctx context.Context, petID int64) (*models.PetAggregate, error) {
	aggregate, err := s.pets.ReadAggregate(ctx, s.writer, petID)
	if err != nil {
		return nil, err
	}

	s.storeAggregate(ctx, aggregate)
	return aggregate, nil
}

func (s *PetService) cachedAggregate(ctx context.Context, petID int64) *models.PetAggregate {
	if s.cache == nil {
		return nil
	}

	data, ok, err := s.cache.Get(ctx, aggregateKey(petID))
	if err != nil {
		s.log.Warn("cache read failed", "pet_id", petID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	aggregate := &models.PetAggregate{}
	if err := json.Unmarshal(data, aggregate); err != nil {
		s.log.Warn("cache entry corrupt", "pet_id", petID, "error", err)
		return nil
	}
	return aggregate
}

func (s *PetService) storeAggregate(ctx context.Context, aggregate *models.PetAggregate) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(aggregate)
	if err != nil {
		s.log.Warn("cache marshal failed", "pet_id", aggregate.ID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, aggregateKey(aggregate.ID), data, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", "pet_id", aggregate.ID, "error", err)
	}
}

func (s *PetService) invalidate(ctx context.Context, petID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, aggregateKey(petID)); err != nil {
		s.log.Warn("cache invalidation failed", "pet_id", petID, "error", err)
	}
}

func (s *PetService) publish(ctx context.Context, topic string, petID int64) {
	if s.bus == nil {
		return
	}

	payload, _ := json.Marshal(map[string]any{
		"pet_id": petID,
		"at":     time.Now().UTC(),
	})
	if err := s.bus.Publish(ctx, topic, strconv.FormatInt(petID, 10), payload); err != nil {
		s.log.Warn("event publish failed", "topic", topic, "pet_id", petID, "error", err)
	}
}

func aggregateKey(petID int64) string {
	return fmt.Sprintf("pet:aggregate:%d", petID)
}

func tagIDs(tags []models.Tag) []int64 {
	ids := make([]int64, len(tags))
	for i, tag := range tags {
		ids[i] = tag.ID
	}
	return ids
}
