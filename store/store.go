package store

import (
	"context"
	"time"

	"github.com/Arvoid00/seamless-ai/internal/profile"
	"github.com/Arvoid00/seamless-ai/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	agentCache *cache.Cache // cache for agents keyed by name
	tagCache   *cache.Cache // cache for the full tag list
	userCache  *cache.Cache // cache for users keyed by id
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:      driver,
		profile:     profile,
		cacheConfig: cacheConfig,
		agentCache:  cache.New(cacheConfig),
		tagCache:    cache.New(cacheConfig),
		userCache:   cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.agentCache.Close()
	s.tagCache.Close()
	s.userCache.Close()

	return s.driver.Close()
}

func (s *Store) UpsertTranscript(ctx context.Context, upsert *Transcript) (*Transcript, error) {
	return s.driver.UpsertTranscript(ctx, upsert)
}

// ListTranscripts lists transcripts newest-first. When find.Filter is set,
// the CEL expression is applied after the database query.
func (s *Store) ListTranscripts(ctx context.Context, find *FindTranscript) ([]*Transcript, error) {
	var predicate func(*Transcript) (bool, error)
	if find != nil && find.Filter != nil && *find.Filter != "" {
		p, err := compileTranscriptFilter(*find.Filter)
		if err != nil {
			return nil, err
		}
		predicate = p
	}

	list, err := s.driver.ListTranscripts(ctx, find)
	if err != nil {
		return nil, err
	}
	if predicate == nil {
		return list, nil
	}

	filtered := make([]*Transcript, 0, len(list))
	for _, transcript := range list {
		matched, err := predicate(transcript)
		if err != nil {
			return nil, err
		}
		if matched {
			filtered = append(filtered, transcript)
		}
	}
	return filtered, nil
}

// GetTranscript returns a single transcript or nil when not found.
func (s *Store) GetTranscript(ctx context.Context, find *FindTranscript) (*Transcript, error) {
	list, err := s.driver.ListTranscripts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteTranscript(ctx context.Context, delete *DeleteTranscript) error {
	return s.driver.DeleteTranscript(ctx, delete)
}

func (s *Store) UpsertAgent(ctx context.Context, upsert *Agent) (*Agent, error) {
	agent, err := s.driver.UpsertAgent(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.agentCache.Set(agent.Name, agent)
	return agent, nil
}

// GetAgentByName returns the named agent or nil when not found.
func (s *Store) GetAgentByName(ctx context.Context, name string) (*Agent, error) {
	if cached, ok := s.agentCache.Get(name); ok {
		return cached.(*Agent), nil
	}

	list, err := s.driver.ListAgents(ctx, &FindAgent{Name: &name})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.agentCache.Set(name, list[0])
	return list[0], nil
}

func (s *Store) ListAgents(ctx context.Context, find *FindAgent) ([]*Agent, error) {
	return s.driver.ListAgents(ctx, find)
}

func (s *Store) DeleteAgent(ctx context.Context, delete *DeleteAgent) error {
	if err := s.driver.DeleteAgent(ctx, delete); err != nil {
		return err
	}
	s.agentCache.Clear()
	return nil
}

func (s *Store) UpsertTag(ctx context.Context, upsert *Tag) (*Tag, error) {
	tag, err := s.driver.UpsertTag(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.tagCache.Clear()
	return tag, nil
}

const tagListCacheKey = "tags"

func (s *Store) ListTags(ctx context.Context, find *FindTag) ([]*Tag, error) {
	if find == nil || (find.ID == nil && find.Name == nil) {
		if cached, ok := s.tagCache.Get(tagListCacheKey); ok {
			return cached.([]*Tag), nil
		}
	}

	list, err := s.driver.ListTags(ctx, find)
	if err != nil {
		return nil, err
	}
	if find == nil || (find.ID == nil && find.Name == nil) {
		s.tagCache.Set(tagListCacheKey, list)
	}
	return list, nil
}

func (s *Store) DeleteTag(ctx context.Context, delete *DeleteTag) error {
	if err := s.driver.DeleteTag(ctx, delete); err != nil {
		return err
	}
	s.tagCache.Clear()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteUser(ctx context.Context, delete *DeleteUser) error {
	return s.driver.DeleteUser(ctx, delete)
}

func (s *Store) UpsertPassage(ctx context.Context, upsert *Passage) (*Passage, error) {
	return s.driver.UpsertPassage(ctx, upsert)
}

func (s *Store) ListPassages(ctx context.Context, find *FindPassage) ([]*Passage, error) {
	return s.driver.ListPassages(ctx, find)
}

func (s *Store) DeletePassage(ctx context.Context, delete *DeletePassage) error {
	return s.driver.DeletePassage(ctx, delete)
}

func (s *Store) VectorSearchPassages(ctx context.Context, opts *VectorSearchOptions) ([]*PassageWithScore, error) {
	return s.driver.VectorSearchPassages(ctx, opts)
}
