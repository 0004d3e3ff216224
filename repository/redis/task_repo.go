package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const timeLayout = time.RFC3339Nano

// Both scripts return false (a nil reply) when the task hash does not exist.
var (
	updateScript = redislib.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
redis.call('HSET', KEYS[1], 'title', ARGV[1], 'due_at', ARGV[2], 'updated_at', ARGV[3])
return redis.call('HGETALL', KEYS[1])
`)

	completeScript = redislib.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
if redis.call('HGET', KEYS[1], 'completed') ~= '1' then
	redis.call('HSET', KEYS[1], 'completed', '1', 'updated_at', ARGV[1])
end
return redis.call('HGETALL', KEYS[1])
`)
)

// taskRepository stores each task as a hash, allocates ids with INCR and
// keeps a sorted set of ids as the listing index.
type taskRepository struct {
	client *redislib.Client
	prefix string
}

// NewTaskRepository creates a Redis-backed task store. Closing it closes the client.
func NewTaskRepository(client *redislib.Client, prefix string) repository.Store {
	return &taskRepository{client: client, prefix: prefix}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return decodeTask(fields)
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	tasks := []domain.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	cmds := make([]*redislib.MapStringStringCmd, 0, len(ids))
	if _, err := r.client.Pipelined(ctx, func(pipe redislib.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, pipe.HGetAll(ctx, r.prefix+"task:"+id))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		// deleted between ZRANGE and HGETALL
		if len(fields) == 0 {
			continue
		}
		task, err := decodeTask(fields)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return nil, err
	}
	task.ID = id
	if task.CreatedAt.IsZero() {
		task.Touch(time.Now())
	}

	if _, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HSet(ctx, r.key(id), encodeTask(task))
		pipe.ZAdd(ctx, r.indexKey(), redislib.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	}); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now()
	}
	reply, err := updateScript.Run(ctx, r.client, []string{r.key(task.ID)},
		task.Title,
		formatTimePtr(task.DueAt),
		task.UpdatedAt.Format(timeLayout),
	).Slice()
	return decodeReply(reply, err)
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	if at.IsZero() {
		at = time.Now()
	}
	reply, err := completeScript.Run(ctx, r.client, []string{r.key(id)}, at.Format(timeLayout)).Slice()
	return decodeReply(reply, err)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	var del *redislib.IntCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		del = pipe.Del(ctx, r.key(id))
		pipe.ZRem(ctx, r.indexKey(), strconv.FormatInt(id, 10))
		return nil
	}); err != nil {
		return err
	}
	if del.Val() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *taskRepository) Close() error {
	return r.client.Close()
}

func (r *taskRepository) key(id int64) string {
	return fmt.Sprintf("%stask:%d", r.prefix, id)
}

func (r *taskRepository) indexKey() string {
	return r.prefix + "tasks"
}

func (r *taskRepository) seqKey() string {
	return r.prefix + "tasks:seq"
}

func encodeTask(task *domain.Task) map[string]interface{} {
	completed := "0"
	if task.Completed {
		completed = "1"
	}
	return map[string]interface{}{
		"id":         strconv.FormatInt(task.ID, 10),
		"title":      task.Title,
		"due_at":     formatTimePtr(task.DueAt),
		"completed":  completed,
		"created_at": task.CreatedAt.Format(timeLayout),
		"updated_at": task.UpdatedAt.Format(timeLayout),
	}
}

func decodeReply(reply []interface{}, err error) (*domain.Task, error) {
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	fields := make(map[string]string, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		k, _ := reply[i].(string)
		v, _ := reply[i+1].(string)
		fields[k] = v
	}
	return decodeTask(fields)
}

func decodeTask(fields map[string]string) (*domain.Task, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode task id: %w", err)
	}
	task := &domain.Task{
		ID:        id,
		Title:     fields["title"],
		Completed: fields["completed"] == "1",
	}
	if due := fields["due_at"]; due != "" {
		t, err := time.Parse(timeLayout, due)
		if err != nil {
			return nil, fmt.Errorf("decode task %d due_at: %w", id, err)
		}
		task.DueAt = &t
	}
	if task.CreatedAt, err = time.Parse(timeLayout, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("decode task %d created_at: %w", id, err)
	}
	if task.UpdatedAt, err = time.Parse(timeLayout, fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("decode task %d updated_at: %w", id, err)
	}
	return task, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
