package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/zstd"
	"github.com/route-beacon/mrt-decoder/internal/metrics"
	"github.com/route-beacon/mrt-decoder/internal/mrt"
	"go.uber.org/zap"
)

var rawEncoder *zstd.Encoder

func init() {
	var err error
	rawEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("store: zstd encoder init: %v", err))
	}
}

// Writer persists decoded MRT records to Postgres, one batch insert per
// record kind, mirroring history.Writer's batch-and-count pattern.
type Writer struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	compressRaw bool
}

func NewWriter(pool *pgxpool.Pool, logger *zap.Logger, compressRaw bool) *Writer {
	return &Writer{pool: pool, logger: logger, compressRaw: compressRaw}
}

func (w *Writer) maybeCompress(b []byte) []byte {
	if b == nil || !w.compressRaw {
		return b
	}
	return rawEncoder.EncodeAll(b, nil)
}

// RibRow pairs a decoded Rib with the PeerContext in effect when it was
// decoded, so FlushRibs can resolve peer metadata per entry.
type RibRow struct {
	Rib  *mrt.Rib
	Peer *mrt.PeerContext
}

// FlushRibs inserts one row per RibEntry across the batch of Ribs.
func (w *Writer) FlushRibs(ctx context.Context, rows []RibRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	start := time.Now()

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO mrt_ribs (seq_num, family, prefix_addr, prefix_len, peer_index,
			path_id, originated, origin, as_path, next_hop, med, local_pref, extra_attrs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	batch := &pgx.Batch{}
	queued := 0
	for _, row := range rows {
		for _, e := range row.Rib.Entries {
			var origin any
			if e.HasOrigin {
				origin = int16(e.Origin)
			}
			var nextHop any
			if e.NextHop.IP != nil {
				nextHop = e.NextHop.IP.String()
			}
			var med, localPref any
			if e.MEDPresent {
				med = int64(e.MED)
			}
			if e.LPPresent {
				localPref = int64(e.LocalPref)
			}

			batch.Queue(insertSQL,
				row.Rib.SeqNum, int16(row.Rib.Prefix.Address.Family), row.Rib.Prefix.Address.IP.String(),
				int16(row.Rib.Prefix.PrefixLen), int32(e.PeerIndex), int64(e.PathID), int64(e.Originated),
				origin, w.maybeCompress(e.ASPath), nextHop, med, localPref, w.compressExtraAttrs(e.ExtraAttrs),
			)
			queued++
		}
	}
	if queued == 0 {
		return 0, nil
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < queued; i++ {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("store: insert mrt_ribs[%d]: %w", i, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("store: closing batch results: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("store: commit tx: %w", err)
	}

	metrics.DBWriteDuration.WithLabelValues("mrt_ribs").Observe(time.Since(start).Seconds())
	metrics.DBRowsAffectedTotal.WithLabelValues("mrt_ribs").Add(float64(inserted))
	metrics.BatchSize.WithLabelValues("mrt_ribs").Observe(float64(queued))
	return inserted, nil
}

// FlushStates inserts a batch of decoded BGP4MP state-change records.
func (w *Writer) FlushStates(ctx context.Context, states []*mrt.BgpState) (int64, error) {
	if len(states) == 0 {
		return 0, nil
	}
	start := time.Now()

	const insertSQL = `
		INSERT INTO mrt_bgp_states (ts_sec, ts_nsec, src_as, dst_as, src_addr, dst_addr, old_state, new_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for _, s := range states {
		batch.Queue(insertSQL, int64(s.Timestamp.Sec), int64(s.Timestamp.Nsec),
			int64(s.SrcAS), int64(s.DstAS), s.Src.IP.String(), s.Dst.IP.String(),
			int32(s.OldState), int32(s.NewState))
	}

	inserted, err := w.execBatch(ctx, batch, len(states), "mrt_bgp_states")
	if err != nil {
		return 0, err
	}
	metrics.DBWriteDuration.WithLabelValues("mrt_bgp_states").Observe(time.Since(start).Seconds())
	return inserted, nil
}

// FlushMessages inserts a batch of decoded BGP4MP message records.
func (w *Writer) FlushMessages(ctx context.Context, msgs []*mrt.BgpMsg) (int64, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	start := time.Now()

	const insertSQL = `
		INSERT INTO mrt_bgp_messages (ts_sec, ts_nsec, src_as, dst_as, src_addr, dst_addr, add_path, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for _, m := range msgs {
		batch.Queue(insertSQL, int64(m.Timestamp.Sec), int64(m.Timestamp.Nsec),
			int64(m.SrcAS), int64(m.DstAS), m.Src.IP.String(), m.Dst.IP.String(),
			m.AddPath, w.maybeCompress(m.Raw))
	}

	inserted, err := w.execBatch(ctx, batch, len(msgs), "mrt_bgp_messages")
	if err != nil {
		return 0, err
	}
	metrics.DBWriteDuration.WithLabelValues("mrt_bgp_messages").Observe(time.Since(start).Seconds())
	return inserted, nil
}

func (w *Writer) execBatch(ctx context.Context, batch *pgx.Batch, n int, table string) (int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < n; i++ {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("store: insert %s[%d]: %w", table, i, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("store: closing batch results: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("store: commit tx: %w", err)
	}

	metrics.DBRowsAffectedTotal.WithLabelValues(table).Add(float64(inserted))
	metrics.BatchSize.WithLabelValues(table).Observe(float64(n))
	return inserted, nil
}

func (w *Writer) compressExtraAttrs(attrs [][]byte) [][]byte {
	if len(attrs) == 0 {
		return nil
	}
	out := make([][]byte, len(attrs))
	for i, a := range attrs {
		out[i] = w.maybeCompress(a)
	}
	return out
}
