package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Uplink 一条上行记录（含解码结果或解码错误）
type Uplink struct {
	ID          uuid.UUID
	DevEUI      string
	FPort       int
	FCnt        int64
	PayloadHex  string
	Decoder     string
	Decoded     []byte // JSON，解码失败时为 nil
	DecodeError string
	ReceivedAt  time.Time
}

// Repository 上行记录持久化
type Repository struct {
	Pool *pgxpool.Pool
}

// InsertUplink 写入上行记录；ID 为空时自动生成
func (r *Repository) InsertUplink(ctx context.Context, u *Uplink) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = time.Now()
	}
	const q = `INSERT INTO uplinks (id, dev_eui, fport, fcnt, payload_hex, decoder, decoded, decode_error, received_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9)`
	var decoded interface{}
	if u.Decoded != nil {
		decoded = string(u.Decoded)
	}
	_, err := r.Pool.Exec(ctx, q, u.ID, u.DevEUI, u.FPort, u.FCnt, u.PayloadHex, u.Decoder, decoded, u.DecodeError, u.ReceivedAt)
	return err
}

// LatestUplinks 查询设备最近的上行记录
func (r *Repository) LatestUplinks(ctx context.Context, devEUI string, limit int) ([]Uplink, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, dev_eui, fport, fcnt, payload_hex, decoder, decoded, COALESCE(decode_error,''), received_at
               FROM uplinks WHERE dev_eui=$1 ORDER BY received_at DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, devEUI, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Uplink
	for rows.Next() {
		var u Uplink
		if err := rows.Scan(&u.ID, &u.DevEUI, &u.FPort, &u.FCnt, &u.PayloadHex, &u.Decoder, &u.Decoded, &u.DecodeError, &u.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
