package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/NewsHarvest/internal/dataset"
	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/pipeline"
	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Article 规范化表在数据库中的镜像，CSV 仍是对下游的正式约定
type Article struct {
	ID            string            `gorm:"primaryKey;size:40" json:"id"`
	Source        string            `gorm:"size:64;index" json:"source"`
	Title         string            `gorm:"size:512" json:"title"`
	URL           string            `gorm:"size:1024;uniqueIndex" json:"url"`
	Text          string            `gorm:"type:text" json:"text"`
	HarvestedDate string            `gorm:"size:10;index" json:"harvestedDate"` // YYYY-MM-DD（UTC）
	ExtraData     datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HarvestRun 每次源抽取运行的统计
type HarvestRun struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	Source     string            `gorm:"size:64;index" json:"source"`
	StartedAt  time.Time         `gorm:"index" json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Discovered int               `json:"discovered"`
	Saved      int               `json:"saved"`
	Failed     int               `json:"failed"`
	Empty      int               `json:"empty"`
	Failures   datatypes.JSONMap `gorm:"type:jsonb" json:"failures"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Article{}, &HarvestRun{}); err != nil {
		return nil, err
	}

	s := &Store{DB: db}
	if redisAddr == "" {
		return s, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("warn: redis ping failed: %v", err)
	}
	s.Redis = rdb
	return s, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// toArticles 转换为入库结构。同一批次内 URL 重复时保留最后一条，
// 否则 ON CONFLICT 会在同一条 INSERT 中命中同一行两次。
func toArticles(source string, t dataset.Table, now time.Time) []Article {
	date := now.UTC().Format("2006-01-02")
	pos := make(map[string]int, len(t))
	out := make([]Article, 0, len(t))

	for _, r := range t {
		a := Article{
			ID:            processor.ArticleID(r.URL),
			Source:        source,
			Title:         truncateRunesDB(toValidUTF8(r.Title), 512),
			URL:           r.URL,
			Text:          toValidUTF8(r.Text),
			HarvestedDate: date,
			ExtraData: datatypes.JSONMap{
				"text_chars": len([]rune(r.Text)),
			},
		}
		if i, ok := pos[r.URL]; ok {
			out[i] = a
			continue
		}
		pos[r.URL] = len(out)
		out = append(out, a)
	}
	return out
}

// SaveArticles 以 URL 作为幂等键写入规范化表，已存在时更新正文
func (s *Store) SaveArticles(source string, t dataset.Table) error {
	rows := toArticles(source, t, time.Now())
	if len(rows) == 0 {
		return nil
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"source", "title", "text", "harvested_date", "extra_data", "updated_at"}),
	}).CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("storage: save %s articles: %w", source, err)
	}

	// 不做按 key 通配删除，依赖短 TTL 的缓存自然过期
	return nil
}

// SaveRun 记录一次抽取运行
func (s *Store) SaveRun(r *pipeline.Report) error {
	failures := make(datatypes.JSONMap, len(r.Failures))
	for url, msg := range r.Failures {
		failures[url] = msg
	}
	run := &HarvestRun{
		ID:         r.RunID,
		Source:     r.Source,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Discovered: r.Discovered,
		Saved:      r.Saved,
		Failed:     r.Failed,
		Empty:      r.Empty,
		Failures:   failures,
	}
	if err := s.DB.Create(run).Error; err != nil {
		return fmt.Errorf("storage: save run %s: %w", r.RunID, err)
	}
	return nil
}

func normalizeLimit(limit, def, max int) int {
	if limit <= 0 || limit > max {
		return def
	}
	return limit
}

func articlesCacheKey(source string, limit int) string {
	return fmt.Sprintf("articles:list:%s:%d", source, limit)
}

// ListArticles 按源返回最近的文章，使用 Redis 做简单缓存
func (s *Store) ListArticles(source string, limit int) ([]Article, error) {
	limit = normalizeLimit(limit, 20, 500)
	ctx := context.Background()
	cacheKey := articlesCacheKey(source, limit)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []Article
	db := s.DB.Model(&Article{})
	if source != "" {
		db = db.Where("source = ?", source)
	}
	if err := db.Order("updated_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	const listCacheTTL = 5 * time.Minute
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

// ListRuns 最近的运行记录，不缓存
func (s *Store) ListRuns(source string, limit int) ([]HarvestRun, error) {
	limit = normalizeLimit(limit, 20, 200)
	var runs []HarvestRun
	db := s.DB.Model(&HarvestRun{})
	if source != "" {
		db = db.Where("source = ?", source)
	}
	if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
