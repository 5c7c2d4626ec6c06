package primary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/rueidis"

	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

// ConnectFunc dials the document store on first use.
type ConnectFunc func() (rueidis.Client, error)

// RedisStore keeps each user's tasks as one hash: field = task id,
// value = the task document as JSON.
type RedisStore struct {
	mu      sync.Mutex
	client  rueidis.Client
	connect ConnectFunc
	prefix  string
	l       pkgLog.Logger
}

func NewRedisStore(connect ConnectFunc, keyPrefix string, l pkgLog.Logger) *RedisStore {
	return &RedisStore{connect: connect, prefix: keyPrefix, l: l}
}

func NewRedisStoreWithClient(client rueidis.Client, keyPrefix string, l pkgLog.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix, l: l}
}

func (s *RedisStore) collectionKey(userID string) string {
	return fmt.Sprintf("%s:%s:tasks", s.prefix, userID)
}

func (s *RedisStore) getClient() (rueidis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if s.connect == nil {
		return nil, fmt.Errorf("redis store has no client")
	}
	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

// Put overwrites the whole document for task.ID.
func (s *RedisStore) Put(ctx context.Context, userID string, task *model.Task) error {
	c, err := s.getClient()
	if err != nil {
		return err
	}
	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}

	cmd := c.B().Hset().Key(s.collectionKey(userID)).FieldValue().FieldValue(task.ID, string(doc)).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("put task %s: %w", task.ID, err)
	}
	return nil
}

// BatchPut writes all documents with a single HSET, which redis applies atomically.
func (s *RedisStore) BatchPut(ctx context.Context, userID string, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	c, err := s.getClient()
	if err != nil {
		return err
	}

	fv := c.B().Hset().Key(s.collectionKey(userID)).FieldValue()
	for _, t := range tasks {
		doc, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
		fv = fv.FieldValue(t.ID, string(doc))
	}

	if err := c.Do(ctx, fv.Build()).Error(); err != nil {
		return fmt.Errorf("batch put %d tasks: %w", len(tasks), err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, taskID string) error {
	c, err := s.getClient()
	if err != nil {
		return err
	}

	cmd := c.B().Hdel().Key(s.collectionKey(userID)).Field(taskID).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// ListAll returns every document in the user's collection, newest first.
// Documents that fail to decode are skipped.
func (s *RedisStore) ListAll(ctx context.Context, userID string) ([]*model.Task, error) {
	c, err := s.getClient()
	if err != nil {
		return nil, err
	}

	docs, err := c.Do(ctx, c.B().Hgetall().Key(s.collectionKey(userID)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*model.Task, 0, len(docs))
	for id, doc := range docs {
		var t model.Task
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			s.l.Warnf(ctx, "primary: skipping undecodable document %s: %v", id, err)
			continue
		}
		if t.ID == "" {
			t.ID = id
		}
		t.Normalize()
		tasks = append(tasks, &t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Ping checks that the store answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	c, err := s.getClient()
	if err != nil {
		return err
	}
	return c.Do(ctx, c.B().Ping().Build()).Error()
}

func (s *RedisStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
