package membership

import (
	"context"
	"sort"
	"sync"

	"quizontal-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	maxPreviews     = 3
	maxLoadAttempts = 3
)

type collectionEntry struct {
	collection models.Collection
	members    []models.Membership
	seq        int64
}

type favoriteEntry struct {
	favorite models.Favorite
	seq      int64
}

// Cache is the in-memory projection of one user's collections and favorites.
// The mutex guards in-memory state only and is never held across a store call.
type Cache struct {
	userID      string
	collections CollectionStore
	memberships MembershipStore
	favorites   FavoriteStore

	mu        sync.Mutex
	loaded    bool
	seq       int64
	gen       uint64 // bumped on every write to the snapshot
	epoch     uint64 // bumped on every Clear
	byID      map[string]*collectionEntry
	favorited map[string]*favoriteEntry
}

// NewCache creates an empty cache for userID
func NewCache(userID string, stores Stores) *Cache {
	return &Cache{
		userID:      userID,
		collections: stores.Collections,
		memberships: stores.Memberships,
		favorites:   stores.Favorites,
		byID:        make(map[string]*collectionEntry),
		favorited:   make(map[string]*favoriteEntry),
	}
}

// Load fetches the user's collections, their members and the user's favorites
// and replaces the cache wholesale. Item counts and previews are recomputed
// from the loaded members. On failure the previous snapshot is kept.
//
// A snapshot read while the cache changed (a mutation or another Load landed)
// is discarded and read again, so a slow Load never overwrites newer state.
// A Clear during the read wins and the cache stays empty.
func (c *Cache) Load(ctx context.Context) error {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		c.mu.Lock()
		gen, epoch := c.gen, c.epoch
		c.mu.Unlock()

		snap, err := c.read(ctx)
		if err != nil {
			return err
		}

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return nil
		}
		if c.gen == gen {
			c.byID = snap.byID
			c.favorited = snap.favorited
			c.seq = snap.seq
			c.loaded = true
			c.gen++
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
	}

	log.Warn().Str("user_id", c.userID).Msg("Cache kept changing during load, keeping current snapshot")
	return nil
}

type snapshot struct {
	byID      map[string]*collectionEntry
	favorited map[string]*favoriteEntry
	seq       int64
}

func (c *Cache) read(ctx context.Context) (*snapshot, error) {
	cols, err := c.collections.ListByOwner(ctx, c.userID)
	if err != nil {
		return nil, unavailable(err)
	}

	ids := lo.Map(cols, func(col *models.Collection, _ int) string { return col.ID })
	members, err := c.memberships.ListByCollections(ctx, ids...)
	if err != nil {
		return nil, unavailable(err)
	}

	favs, err := c.favorites.ListByUser(ctx, c.userID)
	if err != nil {
		return nil, unavailable(err)
	}

	grouped := lo.GroupBy(members, func(m *models.Membership) string { return m.CollectionID })

	snap := &snapshot{
		byID:      make(map[string]*collectionEntry, len(cols)),
		favorited: make(map[string]*favoriteEntry, len(favs)),
	}
	for _, col := range cols {
		snap.seq++
		entry := &collectionEntry{collection: *col, seq: snap.seq}
		unique := lo.UniqBy(grouped[col.ID], func(m *models.Membership) string { return m.MediaID })
		for _, m := range unique {
			entry.members = append(entry.members, *m)
		}
		entry.refresh()
		snap.byID[col.ID] = entry
	}

	for _, f := range favs {
		if _, dup := snap.favorited[f.MediaID]; dup {
			continue
		}
		snap.seq++
		snap.favorited[f.MediaID] = &favoriteEntry{favorite: *f, seq: snap.seq}
	}
	return snap, nil
}

// Clear empties the cache. The store is not touched.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]*collectionEntry)
	c.favorited = make(map[string]*favoriteEntry)
	c.loaded = false
	c.gen++
	c.epoch++
}

// Loaded reports whether a Load has completed since the last Clear
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// nextSeq also marks the snapshot as changed; callers hold c.mu
func (c *Cache) nextSeq() int64 {
	c.gen++
	c.seq++
	return c.seq
}

// refresh derives the item count and preview list from the member list
func (e *collectionEntry) refresh() {
	e.collection.ItemCount = len(e.members)
	e.collection.PreviewImages = previewsOf(e.members)
}

func previewsOf(members []models.Membership) []string {
	previews := make([]string, 0, maxPreviews)
	for _, m := range members {
		if len(previews) == maxPreviews {
			break
		}
		previews = append(previews, m.ThumbnailURL)
	}
	return previews
}

func (e *collectionEntry) hasMember(mediaID string) bool {
	return lo.ContainsBy(e.members, func(m models.Membership) bool { return m.MediaID == mediaID })
}

func (e *collectionEntry) snapshot() *models.Collection {
	col := e.collection
	col.PreviewImages = append([]string{}, e.collection.PreviewImages...)
	return &col
}

// lookup returns a copy of the collection and its members
func (c *Cache) lookup(collectionID string) (*models.Collection, []models.Membership, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[collectionID]
	if !ok {
		return nil, nil, false
	}
	return entry.snapshot(), append([]models.Membership(nil), entry.members...), true
}

func (c *Cache) isMember(collectionID, mediaID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[collectionID]
	return ok && entry.hasMember(mediaID)
}

func (c *Cache) insertCollection(col models.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	col.ItemCount = 0
	col.PreviewImages = []string{}
	c.byID[col.ID] = &collectionEntry{collection: col, seq: c.nextSeq()}
}

func (c *Cache) updateDetails(collectionID, name, description string, visibility models.Visibility) (*models.Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[collectionID]
	if !ok {
		return nil, false
	}
	c.gen++
	entry.collection.Name = name
	entry.collection.Description = description
	entry.collection.Visibility = visibility
	return entry.snapshot(), true
}

// addMember appends m unless the collection disappeared or already holds the
// media item, both of which can happen while the remote write was in flight
func (c *Cache) addMember(m models.Membership) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[m.CollectionID]
	if !ok || entry.hasMember(m.MediaID) {
		return
	}
	c.gen++
	entry.members = append(entry.members, m)
	entry.refresh()
}

func (c *Cache) removeMember(collectionID, mediaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[collectionID]
	if !ok {
		return
	}
	c.gen++
	entry.members = lo.Filter(entry.members, func(m models.Membership, _ int) bool {
		return m.MediaID != mediaID
	})
	entry.refresh()
}

func (c *Cache) dropCollection(collectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	delete(c.byID, collectionID)
}

// collectionsSnapshot returns copies ordered newest first when every entry
// has a creation timestamp, otherwise in insertion order
func (c *Cache) collectionsSnapshot() []*models.Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := lo.Values(c.byID)
	timestamped := lo.EveryBy(entries, func(e *collectionEntry) bool {
		return !e.collection.CreatedAt.IsZero()
	})
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !timestamped {
			return a.seq < b.seq
		}
		if !a.collection.CreatedAt.Equal(b.collection.CreatedAt) {
			return a.collection.CreatedAt.After(b.collection.CreatedAt)
		}
		return a.seq > b.seq
	})
	return lo.Map(entries, func(e *collectionEntry, _ int) *models.Collection { return e.snapshot() })
}

func (c *Cache) hasFavorite(mediaID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.favorited[mediaID]
	return ok
}

func (c *Cache) putFavorite(f models.Favorite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.favorited[f.MediaID]; ok {
		return
	}
	c.favorited[f.MediaID] = &favoriteEntry{favorite: f, seq: c.nextSeq()}
}

func (c *Cache) dropFavorite(mediaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	delete(c.favorited, mediaID)
}

// favoritesSnapshot returns copies, most recently favorited first
func (c *Cache) favoritesSnapshot() []*models.Favorite {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := lo.Values(c.favorited)
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	return lo.Map(entries, func(e *favoriteEntry, _ int) *models.Favorite {
		f := e.favorite
		return &f
	})
}
