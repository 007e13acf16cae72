package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store 持久化订阅者记录。
type Store interface {
	FindByEmail(ctx context.Context, email string) (Subscriber, error)
	Create(ctx context.Context, email string, createdAt time.Time) (Subscriber, error)
	IncrementCount(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Subscriber, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS subscriber (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email      TEXT    NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	pdf_count  INTEGER NOT NULL DEFAULT 0
)`

// SQLStore 是基于 SQLite（modernc.org/sqlite，纯 Go 实现）的 Store。
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// DSN 把 DATABASE_URL 风格的地址转换为驱动可用的路径：
// sqlite:///rel/path 为相对路径，sqlite:////abs/path 为绝对路径。
func DSN(url string) string {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return strings.TrimPrefix(url, "sqlite:///")
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	default:
		return url
	}
}

// Open 打开（必要时创建）数据库并建表。
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("subscriber: 数据库地址为空")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库 %s 失败: %w", dsn, err)
	}
	// 单连接：SQLite 写入本就串行，且 :memory: 数据库只存在于单个连接中。
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close 关闭数据库连接。
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (Subscriber, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at, pdf_count FROM subscriber WHERE email = ?`, email)
	sub, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("查询订阅者 %s 失败: %w", email, err)
	}
	return sub, nil
}

// Create 插入新记录，计数从 1 开始（登记本身伴随一次生成）。
func (s *SQLStore) Create(ctx context.Context, email string, createdAt time.Time) (Subscriber, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriber (email, created_at, pdf_count) VALUES (?, ?, 1)`,
		email, createdAt.UnixNano())
	if err != nil {
		return Subscriber{}, fmt.Errorf("写入订阅者 %s 失败: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Subscriber{}, fmt.Errorf("读取新记录 ID 失败: %w", err)
	}
	return Subscriber{ID: id, Email: email, CreatedAt: time.Unix(0, createdAt.UnixNano()).UTC(), PDFCount: 1}, nil
}

func (s *SQLStore) IncrementCount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriber SET pdf_count = pdf_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("更新计数失败: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List 按登记时间倒序返回全部记录。
func (s *SQLStore) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, created_at, pdf_count FROM subscriber ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("查询订阅者列表失败: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		sub, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("读取订阅者失败: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Subscriber, error) {
	var (
		sub     Subscriber
		created int64
	)
	if err := row.Scan(&sub.ID, &sub.Email, &created, &sub.PDFCount); err != nil {
		return Subscriber{}, err
	}
	sub.CreatedAt = time.Unix(0, created).UTC()
	return sub, nil
}
