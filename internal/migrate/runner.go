// Package migrate 顺序执行 db/migrations 下的 SQL 迁移（NNNN_name_up.sql / NNNN_name_down.sql）。
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lockKey 多副本同时启动时只有一个执行迁移
const lockKey int64 = 0x7470_6272_6b72 // "tpbrkr"

// Runner 迁移执行器。FS 优先，其次 Dir（本地目录）。
type Runner struct {
	Dir string
	FS  fs.FS
}

// EnsureTable 保证 schema_migrations 表存在
func EnsureTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version BIGINT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`)
	return err
}

// AppliedVersions 已应用版本
func AppliedVersions(ctx context.Context, db *pgxpool.Pool) (map[int64]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	res := make(map[int64]bool, len(versions))
	for _, v := range versions {
		res[v] = true
	}
	return res, nil
}

type migration struct {
	Version int64
	Up      string
	Down    string
}

// discover 按版本收集迁移文件；文件名前缀数字为版本，无法解析的文件忽略
func discover(fsys fs.FS) ([]migration, error) {
	byVersion := make(map[int64]*migration)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := path.Base(p)
		var up bool
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			up = true
		case strings.HasSuffix(name, "_down.sql"):
		default:
			return nil
		}
		prefix, _, _ := strings.Cut(name, "_")
		ver, perr := strconv.ParseInt(prefix, 10, 64)
		if perr != nil {
			return nil
		}
		m := byVersion[ver]
		if m == nil {
			m = &migration{Version: ver}
			byVersion[ver] = m
		}
		if up {
			m.Up = p
		} else {
			m.Down = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %04d: missing up file", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r Runner) fsys() (fs.FS, error) {
	if r.FS != nil {
		return r.FS, nil
	}
	if r.Dir == "" {
		return nil, errors.New("migrations dir is empty")
	}
	return os.DirFS(r.Dir), nil
}

// Pending 返回尚未应用的迁移版本
func (r Runner) Pending(applied map[int64]bool) ([]int64, error) {
	fsys, err := r.fsys()
	if err != nil {
		return nil, err
	}
	all, err := discover(fsys)
	if err != nil {
		return nil, err
	}
	var out []int64
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m.Version)
		}
	}
	return out, nil
}

// Up 执行未应用的迁移，每个文件一个事务；全程持有 advisory lock
func (r Runner) Up(ctx context.Context, db *pgxpool.Pool) error {
	fsys, err := r.fsys()
	if err != nil {
		return err
	}
	all, err := discover(fsys)
	if err != nil {
		return err
	}
	return withLock(ctx, db, func(conn *pgxpool.Conn) error {
		if err := EnsureTable(ctx, db); err != nil {
			return err
		}
		applied, err := AppliedVersions(ctx, db)
		if err != nil {
			return err
		}
		for _, m := range all {
			if applied[m.Version] {
				continue
			}
			if err := apply(ctx, conn, fsys, m.Up, `INSERT INTO schema_migrations(version) VALUES($1)`, m.Version); err != nil {
				return fmt.Errorf("migration %04d up: %w", m.Version, err)
			}
		}
		return nil
	})
}

// Down 回滚最近 steps 个已应用的迁移
func (r Runner) Down(ctx context.Context, db *pgxpool.Pool, steps int) error {
	fsys, err := r.fsys()
	if err != nil {
		return err
	}
	all, err := discover(fsys)
	if err != nil {
		return err
	}
	return withLock(ctx, db, func(conn *pgxpool.Conn) error {
		if err := EnsureTable(ctx, db); err != nil {
			return err
		}
		applied, err := AppliedVersions(ctx, db)
		if err != nil {
			return err
		}
		for i := len(all) - 1; i >= 0 && steps > 0; i-- {
			m := all[i]
			if !applied[m.Version] {
				continue
			}
			if m.Down == "" {
				return fmt.Errorf("migration %04d: missing down file", m.Version)
			}
			if err := apply(ctx, conn, fsys, m.Down, `DELETE FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
				return fmt.Errorf("migration %04d down: %w", m.Version, err)
			}
			steps--
		}
		return nil
	})
}

func apply(ctx context.Context, conn *pgxpool.Conn, fsys fs.FS, file, record string, version int64) error {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, record, version)
		return err
	})
}

func withLock(ctx context.Context, db *pgxpool.Pool, fn func(conn *pgxpool.Conn) error) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey)
	}()
	return fn(conn)
}
