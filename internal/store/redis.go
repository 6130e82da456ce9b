package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gpt-relay/internal/domain"
)

// RedisRepository keeps account state in redis: the log as a LIST of
// JSON messages, the enablement map as a HASH, the pending prompt as a
// plain STRING. Every mutation is a single redis command, so a reader
// never observes a half-written message. Check-then-act sequences
// (ReplaceLast, SetSystemPrompt) rely on the orchestrator's per-user
// serialization, same as the rest of the turn protocol.
type RedisRepository struct {
	client   *redis.Client
	defaults []string
}

func NewRedisRepository(client *redis.Client, defaults []string) (*RedisRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRepository{client: client, defaults: defaults}, nil
}

func accountKey(userID string) string   { return "account:" + userID }
func historyKey(userID string) string   { return "history:" + userID }
func providersKey(userID string) string { return "providers:" + userID }
func pendingKey(userID string) string   { return "pending:" + userID }

func (r *RedisRepository) exists(ctx context.Context, userID string) error {
	n, err := r.client.Exists(ctx, accountKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if n == 0 {
		return domain.ErrNoAccount
	}
	return nil
}

func (r *RedisRepository) Create(ctx context.Context, userID string) error {
	created, err := r.client.SetNX(ctx, accountKey(userID), "1", 0).Result()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if !created {
		return nil
	}
	fields := make(map[string]interface{}, len(r.defaults))
	for _, name := range r.defaults {
		fields[name] = "1"
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, providersKey(userID), fields).Err(); err != nil {
		return fmt.Errorf("init providers: %w", err)
	}
	return nil
}

func (r *RedisRepository) History(ctx context.Context, userID string) (domain.Conversation, error) {
	if err := r.exists(ctx, userID); err != nil {
		return nil, err
	}
	raw, err := r.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	log := make(domain.Conversation, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip corrupted entries
		}
		log = append(log, msg)
	}
	return log, nil
}

func (r *RedisRepository) Append(ctx context.Context, userID string, msg domain.Message) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, historyKey(userID), data).Err()
}

func (r *RedisRepository) ReplaceLast(ctx context.Context, userID string, msg domain.Message) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	raw, err := r.client.LIndex(ctx, historyKey(userID), -1).Result()
	if err == redis.Nil {
		return domain.ErrNotAssistantTail
	}
	if err != nil {
		return fmt.Errorf("read tail: %w", err)
	}
	var last domain.Message
	if err := json.Unmarshal([]byte(raw), &last); err != nil || last.Role != domain.RoleAssistant {
		return domain.ErrNotAssistantTail
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.LSet(ctx, historyKey(userID), -1, data).Err()
}

func (r *RedisRepository) DropLast(ctx context.Context, userID string) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	err := r.client.RPop(ctx, historyKey(userID)).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

func (r *RedisRepository) Clear(ctx context.Context, userID string) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	return r.client.Del(ctx, historyKey(userID)).Err()
}

func (r *RedisRepository) SetSystemPrompt(ctx context.Context, userID, text string) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	data, err := json.Marshal(domain.Message{Role: domain.RoleSystem, Content: text})
	if err != nil {
		return err
	}
	key := historyKey(userID)
	raw, err := r.client.LIndex(ctx, key, 0).Result()
	if err == nil {
		var head domain.Message
		if json.Unmarshal([]byte(raw), &head) == nil && head.Role == domain.RoleSystem {
			return r.client.LSet(ctx, key, 0, data).Err()
		}
	} else if err != redis.Nil {
		return fmt.Errorf("read head: %w", err)
	}
	return r.client.LPush(ctx, key, data).Err()
}

func (r *RedisRepository) RemoveSystemPrompt(ctx context.Context, userID string) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	key := historyKey(userID)
	raw, err := r.client.LIndex(ctx, key, 0).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read head: %w", err)
	}
	var head domain.Message
	if json.Unmarshal([]byte(raw), &head) != nil || head.Role != domain.RoleSystem {
		return nil
	}
	return r.client.LPop(ctx, key).Err()
}

func (r *RedisRepository) SetPending(ctx context.Context, userID, text string) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	return r.client.Set(ctx, pendingKey(userID), text, 0).Err()
}

func (r *RedisRepository) Pending(ctx context.Context, userID string) (string, bool, error) {
	if err := r.exists(ctx, userID); err != nil {
		return "", false, err
	}
	text, err := r.client.Get(ctx, pendingKey(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read pending: %w", err)
	}
	return text, true, nil
}

func (r *RedisRepository) Providers(ctx context.Context, userID string) (map[string]bool, error) {
	if err := r.exists(ctx, userID); err != nil {
		return nil, err
	}
	fields, err := r.client.HGetAll(ctx, providersKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read providers: %w", err)
	}
	providers := make(map[string]bool, len(fields))
	for name, val := range fields {
		providers[name] = val == "1"
	}
	return providers, nil
}

func (r *RedisRepository) SetProviderEnabled(ctx context.Context, userID, name string, enabled bool) error {
	if err := r.exists(ctx, userID); err != nil {
		return err
	}
	val := "0"
	if enabled {
		val = "1"
	}
	return r.client.HSet(ctx, providersKey(userID), name, val).Err()
}
